package scoring

import (
	"testing"

	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func fullProfile() *models.Profile {
	return &models.Profile{
		DisplayName:      "Ada",
		Age:              31,
		Location:         "London",
		Bio:              "Engines and poems",
		PurposeDomain:    "Education",
		PurposeArchetype: "Builder",
		PurposeModality:  "Remote",
		PurposeNarrative: "Teach a million kids to code",
		Interests:        []string{"chess", "math", "poetry"},
		Lifestyle:        models.Lifestyle{Smoking: "never", Drinking: "social", Diet: "vegan", Activity: "high"},
		Photos:           []string{"photos/u1/a.jpg"},
	}
}

func TestCompatibility_Identical(t *testing.T) {
	assert.Equal(t, 100, Compatibility(fullProfile(), fullProfile()))
}

func TestCompatibility_Nil(t *testing.T) {
	assert.Equal(t, 0, Compatibility(nil, fullProfile()))
	assert.Equal(t, 0, Compatibility(fullProfile(), nil))
	assert.Equal(t, 0, Compatibility(nil, nil))
}

func TestCompatibility_Empty(t *testing.T) {
	assert.Equal(t, 0, Compatibility(&models.Profile{}, &models.Profile{}))
}

func TestCompatibility_Components(t *testing.T) {
	a := &models.Profile{
		PurposeDomain:    "education",
		PurposeArchetype: "Builder",
		PurposeModality:  "remote",
		Interests:        []string{"Chess", "math"},
		Lifestyle:        models.Lifestyle{Smoking: "never", Diet: "vegan"},
	}
	b := &models.Profile{
		PurposeDomain:    "EDUCATION",
		PurposeArchetype: "Healer",
		PurposeModality:  "",
		Interests:        []string{"chess", "running", "math", "art"},
		Lifestyle:        models.Lifestyle{Smoking: "never", Diet: "omnivore", Activity: "high"},
	}

	// domain 25 + interests 30*2/4 + lifestyle 15*1/2 = 47.5
	assert.Equal(t, 48, Compatibility(a, b))
}

func TestCompatibility_Symmetric(t *testing.T) {
	profiles := []*models.Profile{
		fullProfile(),
		{},
		{PurposeDomain: "Health", Interests: []string{"yoga"}},
		{PurposeDomain: "health", PurposeModality: "Remote", Interests: []string{"yoga", "hiking", "yoga"},
			Lifestyle: models.Lifestyle{Drinking: "never"}},
		{PurposeArchetype: "builder", Lifestyle: models.Lifestyle{Drinking: "social", Diet: "vegan"}},
	}

	for i, a := range profiles {
		for j, b := range profiles {
			ab, ba := Compatibility(a, b), Compatibility(b, a)
			assert.Equal(t, ab, ba, "pair %d/%d", i, j)
			assert.GreaterOrEqual(t, ab, 0)
			assert.LessOrEqual(t, ab, 100)
		}
	}
}

func TestCompatibility_Deterministic(t *testing.T) {
	a, b := fullProfile(), &models.Profile{PurposeDomain: "Education", Interests: []string{"math"}}
	first := Compatibility(a, b)
	for range 10 {
		assert.Equal(t, first, Compatibility(a, b))
	}
}

func TestJaccard_DeduplicatesAndNormalises(t *testing.T) {
	assert.InDelta(t, 1.0, jaccard([]string{"Chess", "chess "}, []string{"CHESS"}), 1e-9)
	assert.InDelta(t, 0.0, jaccard(nil, []string{"chess"}), 1e-9)
	assert.InDelta(t, 1.0/3, jaccard([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
}

func TestCompletion_Full(t *testing.T) {
	score, missing := Completion(fullProfile())
	assert.Equal(t, 100, score)
	assert.Empty(t, missing)
}

func TestCompletion_Nil(t *testing.T) {
	score, missing := Completion(nil)
	assert.Equal(t, 0, score)
	assert.Equal(t, []string{"Display name", "Age", "Location", "Bio", "Purpose domain"}, missing)
}

func TestCompletion_Empty(t *testing.T) {
	score, missing := Completion(&models.Profile{})
	assert.Equal(t, 0, score)
	assert.Len(t, missing, MaxMissing)
}

func TestCompletion_Partial(t *testing.T) {
	p := fullProfile()
	p.Bio = "  "
	p.Photos = nil
	p.Lifestyle = models.Lifestyle{}

	score, missing := Completion(p)
	// 8 of 11
	assert.Equal(t, 73, score)
	assert.Equal(t, []string{"Bio", "Lifestyle", "Photos"}, missing)
}
