package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	dErrors "provenance/pkg/domain-errors"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestSlice(t *testing.T) {
	index := seq(100)

	t.Run("pages of thirty over one hundred items", func(t *testing.T) {
		for _, tc := range []struct{ offset, count int }{{0, 30}, {30, 30}, {60, 30}, {90, 10}} {
			page, err := Slice(index, tc.offset, 30)
			require.NoError(t, err)
			assert.Equal(t, tc.count, page.Count, "offset %d", tc.offset)
			assert.Equal(t, 100, page.TotalCount)
			assert.Len(t, page.Items, 30)
			assert.Equal(t, tc.offset+1, page.Items[0])
		}
	})

	t.Run("short page keeps zero sentinels in unused slots", func(t *testing.T) {
		page, err := Slice(index, 90, 30)
		require.NoError(t, err)
		assert.Equal(t, 100, page.Items[9])
		assert.Equal(t, 0, page.Items[10])
		assert.Equal(t, seq(100)[90:], page.Filled())
	})

	t.Run("offset past the end is not an error", func(t *testing.T) {
		page, err := Slice(index, 500, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, page.Count)
		assert.Equal(t, 100, page.TotalCount)
		assert.Equal(t, 0, page.Items[0])
	})

	t.Run("empty index puts the sentinel in slot zero", func(t *testing.T) {
		page, err := Slice([]int{}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, page.Count)
		assert.Equal(t, 0, page.TotalCount)
		assert.Equal(t, 0, page.Items[0])
		assert.Empty(t, page.Filled())
	})
}

func TestValidate(t *testing.T) {
	for _, size := range []int{0, -1, 101, 105} {
		_, err := Slice([]int{}, 0, size)
		require.Error(t, err, "size %d", size)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "invalid pagesize", dErrors.MessageOf(err))
	}

	for _, size := range []int{1, 100} {
		assert.NoError(t, Validate(0, size))
	}

	err := Validate(-1, 10)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestFromWindow(t *testing.T) {
	page := FromWindow([]string{"a", "b"}, 5, 7)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 7, page.TotalCount)
	assert.Equal(t, []string{"a", "b", "", "", ""}, page.Items)
}

func TestSliceTotalsInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 300).Draw(t, "n")
		offset := rapid.IntRange(0, 400).Draw(t, "offset")
		pageSize := rapid.IntRange(1, MaxPageSize).Draw(t, "pageSize")

		page, err := Slice(seq(n), offset, pageSize)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := min(pageSize, max(0, n-offset))
		if page.Count != want {
			t.Fatalf("count = %d, want %d", page.Count, want)
		}
		if page.TotalCount != n {
			t.Fatalf("totalCount = %d, want %d", page.TotalCount, n)
		}
		if len(page.Items) != pageSize {
			t.Fatalf("buffer has %d slots, want %d", len(page.Items), pageSize)
		}
		for i := range page.Count {
			if page.Items[i] != offset+i+1 {
				t.Fatalf("slot %d = %d, want %d", i, page.Items[i], offset+i+1)
			}
		}
		for i := page.Count; i < pageSize; i++ {
			if page.Items[i] != 0 {
				t.Fatalf("slot %d should hold the zero sentinel", i)
			}
		}
	})
}

func TestInvalidPageSizeAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "n")
		size := rapid.IntRange(MaxPageSize+1, 10_000).Draw(t, "size")
		if _, err := Slice(seq(n), 0, size); !dErrors.HasCode(err, dErrors.CodeValidation) {
			t.Fatalf("page size %d accepted", size)
		}
	})
}
