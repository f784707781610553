package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscoresSum(t *testing.T) {
	s := Subscores{Completeness: 18, Trust: 15, Conversion: 12, Media: 9, LocalSEO: 17}
	assert.Equal(t, 71, s.Sum())
}

func TestPrimaryCategory(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		want       string
	}{
		{"empty", nil, "business"},
		{"single", []string{"bakery"}, "bakery"},
		{"underscores", []string{"meal_takeaway", "restaurant"}, "meal takeaway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &ProfileSnapshot{Categories: tt.categories}
			assert.Equal(t, tt.want, p.PrimaryCategory())
		})
	}
}

func TestKeywordCandidates(t *testing.T) {
	p := &ProfileSnapshot{Categories: []string{"bakery", "cafe", "meal_takeaway", "store"}}

	got := KeywordCandidates("bakery", p)

	// Keyword equals primary category, so it appears once; only the first
	// three categories contribute.
	assert.Equal(t, []string{"bakery", "cafe", "meal takeaway"}, got)
}

func TestKeywordCandidatesEmptyProfile(t *testing.T) {
	p := &ProfileSnapshot{}
	assert.Equal(t, []string{"pizza", "business"}, KeywordCandidates("pizza", p))
}
