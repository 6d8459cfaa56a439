package scoring

import (
	"math"
	"strings"

	"github.com/dmitrijs2005/pup/internal/server/models"
)

// MaxMissing caps the missing-field prompts returned by Completion.
const MaxMissing = 5

type trackedField struct {
	label  string
	filled func(*models.Profile) bool
}

func hasText(s string) bool { return strings.TrimSpace(s) != "" }

func hasItems(items []string) bool {
	for _, it := range items {
		if hasText(it) {
			return true
		}
	}
	return false
}

// tracked is in the order missing labels are reported.
var tracked = []trackedField{
	{"Display name", func(p *models.Profile) bool { return hasText(p.DisplayName) }},
	{"Age", func(p *models.Profile) bool { return p.Age > 0 }},
	{"Location", func(p *models.Profile) bool { return hasText(p.Location) }},
	{"Bio", func(p *models.Profile) bool { return hasText(p.Bio) }},
	{"Purpose domain", func(p *models.Profile) bool { return hasText(p.PurposeDomain) }},
	{"Archetype", func(p *models.Profile) bool { return hasText(p.PurposeArchetype) }},
	{"Modality", func(p *models.Profile) bool { return hasText(p.PurposeModality) }},
	{"Purpose narrative", func(p *models.Profile) bool { return hasText(p.PurposeNarrative) }},
	{"Interests", func(p *models.Profile) bool { return hasItems(p.Interests) }},
	{"Lifestyle", func(p *models.Profile) bool { return !p.Lifestyle.IsZero() }},
	{"Photos", func(p *models.Profile) bool { return hasItems(p.Photos) }},
}

// Completion returns the percentage of tracked fields that are filled and
// up to MaxMissing labels of the unfilled ones. A nil profile counts as
// empty.
func Completion(p *models.Profile) (int, []string) {
	missing := []string{}
	filled := 0

	for _, f := range tracked {
		if p != nil && f.filled(p) {
			filled++
			continue
		}
		if len(missing) < MaxMissing {
			missing = append(missing, f.label)
		}
	}

	return int(math.Round(100 * float64(filled) / float64(len(tracked)))), missing
}
