// Package scoring holds the pure profile scoring functions: pairwise
// compatibility and single-profile completion.
package scoring

import (
	"math"
	"strings"

	"github.com/dmitrijs2005/pup/internal/server/models"
)

const (
	weightDomain    = 25
	weightArchetype = 15
	weightModality  = 15
	weightInterests = 30
	weightLifestyle = 15
)

// Compatibility returns a 0..100 score for two profiles. The result depends
// only on the attributes of a and b and is symmetric in its arguments. A nil
// profile scores 0.
func Compatibility(a, b *models.Profile) int {
	if a == nil || b == nil {
		return 0
	}

	var score float64
	if sameText(a.PurposeDomain, b.PurposeDomain) {
		score += weightDomain
	}
	if sameText(a.PurposeArchetype, b.PurposeArchetype) {
		score += weightArchetype
	}
	if sameText(a.PurposeModality, b.PurposeModality) {
		score += weightModality
	}
	score += weightInterests * jaccard(a.Interests, b.Interests)
	score += weightLifestyle * lifestyleAgreement(a.Lifestyle, b.Lifestyle)

	return int(math.Round(score))
}

// sameText compares case-insensitively; empty values never match.
func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && b != "" && strings.EqualFold(a, b)
}

// jaccard is |A∩B| / |A∪B| over normalised, de-duplicated interests.
func jaccard(a, b []string) float64 {
	setA, setB := normalizedSet(a), normalizedSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func normalizedSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}

// lifestyleAgreement is the fraction of attributes set on both sides that
// agree.
func lifestyleAgreement(a, b models.Lifestyle) float64 {
	pairs := [][2]string{
		{a.Smoking, b.Smoking},
		{a.Drinking, b.Drinking},
		{a.Diet, b.Diet},
		{a.Activity, b.Activity},
	}

	compared, agreed := 0, 0
	for _, p := range pairs {
		if strings.TrimSpace(p[0]) == "" || strings.TrimSpace(p[1]) == "" {
			continue
		}
		compared++
		if sameText(p[0], p[1]) {
			agreed++
		}
	}
	if compared == 0 {
		return 0
	}
	return float64(agreed) / float64(compared)
}
