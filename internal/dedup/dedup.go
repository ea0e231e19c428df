// Package dedup keeps one record per natural key, preferring the freshest.
package dedup

import (
	"sort"

	"gidi_ingest/internal/domain"
)

type Result[R domain.Record] struct {
	// Keep holds exactly one record per distinct non-empty key, in order of
	// first appearance.
	Keep []R
	// Fresh is the subset of Keep that came from the incoming batch.
	Fresh []R
	// Delete holds every record that lost to a newer one and every record
	// with an empty key.
	Delete []R
}

type entry[R domain.Record] struct {
	rec      R
	incoming bool
}

// Reconcile merges existing and incoming records. Existing records are
// visited first, newest first, then incoming in the given order. A record
// replaces the current holder of its key if it is strictly newer, or if the
// holder fails valid while the record passes. Ties go to the first seen.
// A nil valid treats every record as valid.
func Reconcile[R domain.Record](existing, incoming []R, valid func(R) error) Result[R] {
	ordered := make([]R, len(existing))
	copy(ordered, existing)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ObservedAt().After(ordered[j].ObservedAt())
	})

	index := make(map[string]int, len(existing)+len(incoming))
	var kept []entry[R]
	var res Result[R]

	visit := func(r R, incoming bool) {
		key := r.NaturalKey()
		if key == "" {
			res.Delete = append(res.Delete, r)
			return
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(kept)
			kept = append(kept, entry[R]{rec: r, incoming: incoming})
			return
		}
		if displaces(r, kept[i].rec, valid) {
			res.Delete = append(res.Delete, kept[i].rec)
			kept[i] = entry[R]{rec: r, incoming: incoming}
			return
		}
		res.Delete = append(res.Delete, r)
	}

	for _, r := range ordered {
		visit(r, false)
	}
	for _, r := range incoming {
		visit(r, true)
	}

	res.Keep = make([]R, 0, len(kept))
	for _, e := range kept {
		res.Keep = append(res.Keep, e.rec)
		if e.incoming {
			res.Fresh = append(res.Fresh, e.rec)
		}
	}
	return res
}

func displaces[R domain.Record](r, holder R, valid func(R) error) bool {
	if valid != nil {
		rOK, holderOK := valid(r) == nil, valid(holder) == nil
		if rOK != holderOK {
			return rOK
		}
	}
	return r.ObservedAt().After(holder.ObservedAt())
}

// Keys returns the distinct non-empty natural keys of records.
func Keys[R domain.Record](records []R) []string {
	seen := make(map[string]bool, len(records))
	keys := make([]string, 0, len(records))
	for _, r := range records {
		k := r.NaturalKey()
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
