package normalize

import (
	"strings"

	"gidi_ingest/internal/domain"
)

// Rule maps any of its keywords to a category. Rules are evaluated in order
// and the first match wins.
type Rule struct {
	Category string
	Keywords []string
}

func (r Rule) matches(text string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var NewsRules = []Rule{
	{Category: domain.CategoryTraffic, Keywords: []string{"traffic", "road", "bridge"}},
	{Category: domain.CategoryEvents, Keywords: []string{"concert", "festival", "event"}},
	{Category: domain.CategoryNightlife, Keywords: []string{"bar", "club", "nightlife"}},
	{Category: domain.CategoryFood, Keywords: []string{"food", "restaurant", "chef"}},
}

// VenueRules run when a venue's hint is not one of the known categories.
// Beach Club precedes Club since its keyword contains "club".
var VenueRules = []Rule{
	{Category: domain.VenueBeachClub, Keywords: []string{"beach"}},
	{Category: domain.VenueRooftop, Keywords: []string{"rooftop", "roof top", "sky"}},
	{Category: domain.VenueClub, Keywords: []string{"nightclub", "night club", "club"}},
	{Category: domain.VenueLounge, Keywords: []string{"lounge", "shisha", "hookah"}},
	{Category: domain.VenueBar, Keywords: []string{"bar", "pub", "cocktail", "brewery"}},
	{Category: domain.VenueEventCenter, Keywords: []string{"event", "hall", "centre", "center", "arena"}},
	{Category: domain.VenueRestaurant, Keywords: []string{"restaurant", "grill", "kitchen", "cafe", "bistro", "steakhouse", "eatery"}},
}

// Classify returns the category of the first rule matching text, or def.
// Matching is by lower-cased substring.
func Classify(rules []Rule, text, def string) string {
	text = strings.ToLower(text)
	for _, r := range rules {
		if r.matches(text) {
			return r.Category
		}
	}
	return def
}

// NewsCategory classifies the title. A hint from the closed set replaces
// the general fallback when no rule matches.
func NewsCategory(hint, title string) string {
	def := domain.CategoryGeneral
	h := strings.ToLower(strings.TrimSpace(hint))
	for _, c := range domain.NewsCategories {
		if h == c {
			def = c
			break
		}
	}
	return Classify(NewsRules, title, def)
}

func VenueCategory(hint, name, description string) string {
	h := strings.TrimSpace(hint)
	for _, c := range domain.VenueCategories {
		if strings.EqualFold(h, c) {
			return c
		}
	}
	return Classify(VenueRules, h+" "+name+" "+description, domain.VenueRestaurant)
}
