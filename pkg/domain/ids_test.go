package domain

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "provenance/pkg/domain-errors"
)

func TestParseAddress(t *testing.T) {
	t.Run("accepts mixed case and renders lowercase", func(t *testing.T) {
		a, err := ParseAddress("0xCafac3dD18aC6c6e92c921884f9E4176737C052c")
		require.NoError(t, err)
		assert.Equal(t, "0xcafac3dd18ac6c6e92c921884f9e4176737c052c", a.String())
		assert.False(t, a.IsZero())
	})

	t.Run("zero address is the sentinel", func(t *testing.T) {
		a, err := ParseAddress("0x" + strings.Repeat("0", 40))
		require.NoError(t, err)
		assert.True(t, a.IsZero())
	})

	for _, input := range []string{"", "0x", "cafac3dd18ac6c6e92c921884f9e4176737c052c", "0x1234", "0xzzfac3dd18ac6c6e92c921884f9e4176737c052c"} {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := ParseAddress(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseSeriesID(t *testing.T) {
	t.Run("label is right padded", func(t *testing.T) {
		id, err := ParseSeriesID("GILDED SHAPES")
		require.NoError(t, err)
		assert.Equal(t, byte('G'), id[0])
		assert.Equal(t, byte(0), id[13])
		assert.Equal(t, "GILDED SHAPES", id.Label())
	})

	t.Run("hex round trips", func(t *testing.T) {
		id, err := ParseSeriesID("GILDED SHAPES")
		require.NoError(t, err)
		again, err := ParseSeriesID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, again)
	})

	t.Run("rejects labels of 32 bytes", func(t *testing.T) {
		_, err := ParseSeriesID(strings.Repeat("a", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts labels of 31 bytes", func(t *testing.T) {
		_, err := ParseSeriesID(strings.Repeat("a", 31))
		require.NoError(t, err)
	})

	t.Run("rejects short hex", func(t *testing.T) {
		_, err := ParseSeriesID("0xabcdef")
		require.Error(t, err)
	})

	t.Run("binary keys have no label", func(t *testing.T) {
		var id SeriesID
		id[0] = 0x01
		assert.Equal(t, "", id.Label())
	})
}

func TestParseAssetID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"mixed case hex", "0xA010dEaDBeEf002", "0xa010deadbeef002"},
		{"decimal", "255", "0xff"},
		{"zero", "0x0", "0x0"},
		{"leading zeros", "0x000001", "0x1"},
		{"max value", "0x" + strings.Repeat("f", 64), "0x" + strings.Repeat("f", 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseAssetID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}

	for _, input := range []string{"", "0x", "-1", "0x" + strings.Repeat("f", 65), "12ab", "0xgg"} {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := ParseAssetID(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	t.Run("zero is the sentinel", func(t *testing.T) {
		assert.True(t, AssetID{}.IsZero())
		assert.False(t, MustParseAssetID("1").IsZero())
	})
}

func TestTextMarshalling(t *testing.T) {
	type payload struct {
		Creator Address `json:"creator"`
		Asset   AssetID `json:"asset"`
		Tags    []Tag   `json:"tags"`
	}
	in := payload{
		Creator: MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8"),
		Asset:   MustParseAssetID("0xa010deadbeef002"),
		Tags:    []Tag{MustParseTag("WOODWORKING"), {}},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"creator":"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`)
	assert.Contains(t, string(raw), `"asset":"0xa010deadbeef002"`)

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestKeccak256(t *testing.T) {
	digest := Keccak256()
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(digest[:]))

	split := Keccak256([]byte("AUTH_"), []byte("ROLE"))
	whole := Keccak256([]byte("AUTH_ROLE"))
	assert.Equal(t, whole, split)
}

func TestDeriveAddress(t *testing.T) {
	a := DeriveAddress([]byte("factory"), []byte("creator"))
	b := DeriveAddress([]byte("factory"), []byte("creator"))
	c := DeriveAddress([]byte("factory"), []byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	digest := Keccak256([]byte("factory"), []byte("creator"))
	assert.Equal(t, digest[12:], a[:])
}
