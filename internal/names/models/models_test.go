package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

func TestNewNameRecord(t *testing.T) {
	addr := domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("folds the uniqueness key and keeps display casing", func(t *testing.T) {
		rec, err := NewNameRecord(addr, "Mike", now)
		require.NoError(t, err)
		assert.Equal(t, "Mike", rec.Name)
		assert.Equal(t, "mike", rec.FoldedName)
		assert.Equal(t, now, rec.CreatedAt)
	})

	t.Run("rejects the zero address", func(t *testing.T) {
		_, err := NewNameRecord(domain.Address{}, "Mike", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := NewNameRecord(addr, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
