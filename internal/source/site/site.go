// Package site extracts article candidates from news site front pages
// using per-site CSS selector rules.
package site

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
	"gidi_ingest/internal/normalize"
)

const (
	defaultContainer = "article, .post, .entry, .item"
	defaultImage     = "img"
	defaultMaxItems  = 15
	defaultMinTitle  = 10
)

// lazyAttrs are tried in order before src, for lazily loaded images.
var lazyAttrs = []string{"data-src", "data-lazy-src", "data-original"}

// Rule locates candidates within a page.
type Rule struct {
	TitleSelector     string
	LinkSelector      string
	ImageSelector     string
	ContainerSelector string
	MinTitleLength    int
}

type Config struct {
	ID       string
	Name     string
	Origin   string
	Category string
	MaxItems int
	Rule     Rule
}

type Source struct {
	cfg    Config
	client fetch.Getter
	logger *slog.Logger
}

func New(cfg Config, client fetch.Getter, logger *slog.Logger) *Source {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMaxItems
	}
	if cfg.Rule.MinTitleLength <= 0 {
		cfg.Rule.MinTitleLength = defaultMinTitle
	}
	if cfg.Rule.ContainerSelector == "" {
		cfg.Rule.ContainerSelector = defaultContainer
	}
	if cfg.Rule.ImageSelector == "" {
		cfg.Rule.ImageSelector = defaultImage
	}
	return &Source{
		cfg:    cfg,
		client: client,
		logger: logger.With("source", cfg.ID),
	}
}

func (s *Source) ID() string   { return s.cfg.ID }
func (s *Source) Name() string { return s.cfg.Name }

// Fetch downloads the origin page and extracts up to MaxItems candidates
// from the first MaxItems title matches.
func (s *Source) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	resp, err := s.client.Get(ctx, s.cfg.Origin, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrSourceUnavailable, s.cfg.ID, err)
	}

	candidates, err := s.Extract(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrSourceUnavailable, s.cfg.ID, err)
	}

	s.logger.Debug("extracted candidates", "count", len(candidates))
	return candidates, nil
}

// Extract applies the rule to an HTML document.
func (s *Source) Extract(body []byte) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	rule := s.cfg.Rule
	matches := doc.Find(rule.TitleSelector)
	if matches.Length() > s.cfg.MaxItems {
		matches = matches.Slice(0, s.cfg.MaxItems)
	}

	var out []domain.Candidate
	matches.Each(func(_ int, el *goquery.Selection) {
		title := strings.Join(strings.Fields(el.Text()), " ")
		if utf8.RuneCountInString(title) < rule.MinTitleLength {
			return
		}

		link := s.findLink(el)
		if resolved, ok := normalize.ResolveURL(s.cfg.Origin, link); ok {
			link = resolved
		}

		out = append(out, domain.Candidate{
			SourceID:   s.cfg.ID,
			SourceName: s.cfg.Name,
			Origin:     s.cfg.Origin,
			Title:      title,
			URL:        link,
			ImageURL:   s.findImage(el),
			Category:   s.cfg.Category,
		})
	})

	return out, nil
}

func (s *Source) findLink(el *goquery.Selection) string {
	if sel := s.cfg.Rule.LinkSelector; sel != "" {
		scope := el.Closest(s.cfg.Rule.ContainerSelector)
		if scope.Length() == 0 {
			scope = el.Parent()
		}
		if href, ok := scope.Find(sel).First().Attr("href"); ok {
			return strings.TrimSpace(href)
		}
	}
	if href, ok := el.Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	if href, ok := el.Closest("a").Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	href, _ := el.Find("a").First().Attr("href")
	return strings.TrimSpace(href)
}

// findImage looks in the enclosing container, then the element's siblings,
// then its parent's siblings.
func (s *Source) findImage(el *goquery.Selection) string {
	imgSel := s.cfg.Rule.ImageSelector

	if container := el.Closest(s.cfg.Rule.ContainerSelector); container.Length() > 0 {
		if src := imageAttr(container.Find(imgSel).First()); src != "" {
			return src
		}
	}
	if src := imageAttr(el.SiblingsFiltered(imgSel).First()); src != "" {
		return src
	}
	return imageAttr(el.Parent().Siblings().Find(imgSel).First())
}

func imageAttr(img *goquery.Selection) string {
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range lazyAttrs {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	if srcset := img.AttrOr("data-srcset", ""); srcset != "" {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 {
			return fields[0]
		}
	}
	return strings.TrimSpace(img.AttrOr("src", ""))
}
