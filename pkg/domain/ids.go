package domain

import (
	"encoding/hex"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	dErrors "provenance/pkg/domain-errors"
)

const (
	addressLength = 20
	keyLength     = 32
	maxLabelBytes = keyLength - 1
)

// Address is a 20-byte identity handle. The zero value is the zero-identity sentinel.
type Address [addressLength]byte

// SeriesID identifies a series within a catalog.
type SeriesID [keyLength]byte

// Tag is a fixed-width label attached to an asset.
type Tag [keyLength]byte

// AssetID is a 256-bit unsigned identifier stored big-endian.
type AssetID [keyLength]byte

// ParseAddress parses a 0x-prefixed, 40 digit hex address. Mixed case is accepted.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, ok := cutHexPrefix(s)
	if !ok || len(raw) != addressLength*2 {
		return a, dErrors.New(dErrors.CodeInvalidInput, "invalid address")
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address")
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }
func (a Address) IsZero() bool   { return a == Address{} }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseSeriesID accepts either a 0x-prefixed 64 digit hex key or a short label
// of at most 31 bytes, which is right-padded with zero bytes.
func ParseSeriesID(s string) (SeriesID, error) {
	return parseKey[SeriesID](s, "series id")
}

// MustParseSeriesID is ParseSeriesID for constants and tests.
func MustParseSeriesID(s string) SeriesID {
	id, err := ParseSeriesID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id SeriesID) String() string { return "0x" + hex.EncodeToString(id[:]) }
func (id SeriesID) IsZero() bool   { return id == SeriesID{} }
func (id SeriesID) Label() string  { return label(id[:]) }

func (id SeriesID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SeriesID) UnmarshalText(text []byte) error {
	parsed, err := ParseSeriesID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseTag follows the same rules as ParseSeriesID.
func ParseTag(s string) (Tag, error) {
	return parseKey[Tag](s, "tag")
}

// MustParseTag is ParseTag for constants and tests.
func MustParseTag(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Tag) String() string { return "0x" + hex.EncodeToString(t[:]) }
func (t Tag) IsZero() bool   { return t == Tag{} }
func (t Tag) Label() string  { return label(t[:]) }

func (t Tag) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseAssetID parses a 0x-prefixed hex number of up to 64 digits or a decimal
// number that fits in 256 bits.
func ParseAssetID(s string) (AssetID, error) {
	var id AssetID
	invalid := dErrors.New(dErrors.CodeInvalidInput, "invalid asset id")

	n := new(big.Int)
	if raw, ok := cutHexPrefix(s); ok {
		if raw == "" || len(raw) > keyLength*2 {
			return id, invalid
		}
		if _, ok := n.SetString(raw, 16); !ok {
			return id, invalid
		}
	} else {
		if s == "" {
			return id, invalid
		}
		if _, ok := n.SetString(s, 10); !ok {
			return id, invalid
		}
	}
	if n.Sign() < 0 || n.BitLen() > keyLength*8 {
		return id, invalid
	}
	n.FillBytes(id[:])
	return id, nil
}

// MustParseAssetID is ParseAssetID for constants and tests.
func MustParseAssetID(s string) AssetID {
	id, err := ParseAssetID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String renders the id as minimal lowercase hex, "0x0" for zero.
func (id AssetID) String() string {
	return "0x" + new(big.Int).SetBytes(id[:]).Text(16)
}

func (id AssetID) IsZero() bool { return id == AssetID{} }

func (id AssetID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *AssetID) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseKey[T ~[keyLength]byte](s string, kind string) (T, error) {
	var out T
	if raw, ok := cutHexPrefix(s); ok {
		if len(raw) != keyLength*2 {
			return out, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
		}
		buf := make([]byte, keyLength)
		if _, err := hex.Decode(buf, []byte(raw)); err != nil {
			return out, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
		}
		copy(out[:], buf)
		return out, nil
	}
	if s == "" || !utf8.ValidString(s) {
		return out, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if len(s) > maxLabelBytes {
		return out, dErrors.New(dErrors.CodeInvalidInput, kind+" label longer than 31 bytes")
	}
	copy(out[:], s)
	return out, nil
}

func cutHexPrefix(s string) (string, bool) {
	if after, ok := strings.CutPrefix(s, "0x"); ok {
		return after, true
	}
	return strings.CutPrefix(s, "0X")
}

// label trims zero padding and returns the text if it is printable UTF-8.
func label(b []byte) string {
	trimmed := strings.TrimRight(string(b), "\x00")
	if trimmed == "" || !utf8.ValidString(trimmed) {
		return ""
	}
	for _, r := range trimmed {
		if !unicode.IsPrint(r) {
			return ""
		}
	}
	return trimmed
}
