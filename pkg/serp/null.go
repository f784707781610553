package serp

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
)

// NullClient is the ranking oracle used when no provider key is
// configured. It returns synthetic but deterministic ranks derived from
// the query inputs, so local development and tests see stable grids
// without any network traffic.
type NullClient struct{}

// NewNullClient creates a no-network ranking client.
func NewNullClient() *NullClient {
	return &NullClient{}
}

// GetRank derives a pseudo-rank in [1, 21] from a hash of the inputs.
// Roughly one point in eight reports the business as absent.
func (NullClient) GetRank(_ context.Context, keyword string, lat, lng float64, placeID, _ string) (int, bool, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(keyword))
	_, _ = h.Write([]byte(placeID))

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(lat))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(lng))
	_, _ = h.Write(buf[:])

	v := h.Sum64()
	if v%8 == 0 {
		return 0, false, nil
	}
	return int(v%21) + 1, true, nil
}
