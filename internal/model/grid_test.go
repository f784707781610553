package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestClassifyRank(t *testing.T) {
	tests := []struct {
		name string
		rank *int
		want Bucket
	}{
		{"nil rank", nil, BucketUnranked},
		{"zero rank", intPtr(0), BucketUnranked},
		{"negative rank", intPtr(-4), BucketUnranked},
		{"rank 1", intPtr(1), BucketTop3},
		{"rank 3", intPtr(3), BucketTop3},
		{"rank 4", intPtr(4), BucketTop10},
		{"rank 10", intPtr(10), BucketTop10},
		{"rank 11", intPtr(11), BucketTop20},
		{"rank 20", intPtr(20), BucketTop20},
		{"rank 21", intPtr(21), BucketBeyond},
		{"rank 100", intPtr(100), BucketBeyond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRank(tt.rank))
		})
	}
}

func TestRankLabel(t *testing.T) {
	tests := []struct {
		name string
		rank *int
		want string
	}{
		{"nil rank", nil, "NR"},
		{"zero rank", intPtr(0), "NR"},
		{"rank 1", intPtr(1), "1"},
		{"rank 20", intPtr(20), "20"},
		{"rank 21", intPtr(21), "20+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RankLabel(tt.rank))
		})
	}
}

func TestErrorPoint(t *testing.T) {
	p := ErrorPoint(2, 3, 40.1, -70.2)

	assert.Equal(t, 2, p.Row)
	assert.Equal(t, 3, p.Col)
	assert.Equal(t, 40.1, p.Lat)
	assert.Equal(t, -70.2, p.Lng)
	assert.Nil(t, p.Rank)
	assert.Equal(t, "ERR", p.Label)
	assert.Equal(t, BucketError, p.Bucket)
}
