package accountid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbook-dev/passbook/internal/model"
)

func TestAllocate_DistinctDigits(t *testing.T) {
	existing := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id, err := Allocate(existing)
		require.NoError(t, err)
		require.Len(t, id, 3)
		assert.True(t, Valid(id), "id %q must have 3 pairwise-distinct digits", id)
		existing[id] = struct{}{}
	}
	// Uniqueness under repetition: the map kept every id distinct.
	assert.Len(t, existing, 200)
}

func TestAllocate_SkipsExisting(t *testing.T) {
	// Feed a deterministic sequence: first draw collides, second is free.
	draws := []int{102 - 100, 103 - 100}
	i := 0
	intn := func(int) int { d := draws[i]; i++; return d }

	id, err := allocate(map[string]struct{}{"102": {}}, intn)
	require.NoError(t, err)
	assert.Equal(t, "103", id)
}

func TestAllocate_SkipsRepeatedDigits(t *testing.T) {
	draws := []int{112 - 100, 120 - 100}
	i := 0
	intn := func(int) int { d := draws[i]; i++; return d }

	id, err := allocate(map[string]struct{}{}, intn)
	require.NoError(t, err)
	assert.Equal(t, "120", id)
}

func TestAllocate_Exhausted(t *testing.T) {
	// Every draw returns an id with repeated digits.
	intn := func(int) int { return 111 - 100 }

	_, err := allocate(map[string]struct{}{}, intn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrIDSpaceExhausted))
}

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"102", true},
		{"987", true},
		{"112", false}, // repeated digit
		{"122", false},
		{"012", false}, // leading zero
		{"12", false},
		{"1024", false},
		{"1a2", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.id), "Valid(%q)", tt.id)
	}
}
