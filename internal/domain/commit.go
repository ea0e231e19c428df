package domain

import "fmt"

type ConflictPolicy string

const (
	PolicyIgnore  ConflictPolicy = "ignore"
	PolicyReplace ConflictPolicy = "replace"
)

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case PolicyIgnore, PolicyReplace:
		return ConflictPolicy(s), nil
	case "":
		return PolicyReplace, nil
	default:
		return "", fmt.Errorf("%w: unknown conflict policy %q", ErrConfiguration, s)
	}
}

// CommitResult reports what a batch write did, row by row.
type CommitResult struct {
	Inserted  int
	Updated   int
	Skipped   int
	Failures  []CommitFailure
	Committed []CommittedRow
}

type CommitFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type CommittedRow struct {
	Key      string
	ID       int64
	Inserted bool
}

// ListFilter narrows cached reads.
type ListFilter struct {
	Category string
	Limit    int
}
