package models

import (
	"strings"
	"time"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	pstrings "provenance/pkg/platform/strings"
)

// MaxDescriptionLength bounds series and asset descriptions, in code points.
const MaxDescriptionLength = 1024

// urlPlaceholder in a catalog's URL template is replaced by the asset id.
const urlPlaceholder = "{0}"

// Catalog is one creator's registry instance.
type Catalog struct {
	Address       domain.Address
	Creator       domain.Address
	DisplayName   string
	Story         string
	URLTemplate   string
	SeriesCount   int
	AssetCount    int
	ProvisionedBy domain.Address
	CreatedAt     time.Time
}

// NewCatalog checks construction invariants. DisplayName is the creator's
// registry name snapshotted at provisioning.
func NewCatalog(address, creator domain.Address, displayName, story, urlTemplate string, provisionedBy domain.Address, now time.Time) (*Catalog, error) {
	if address.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "catalog address cannot be the zero address")
	}
	if creator.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator cannot be the zero address")
	}
	if pstrings.IsEmpty(displayName) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator display name is required")
	}
	return &Catalog{
		Address:       address,
		Creator:       creator,
		DisplayName:   displayName,
		Story:         story,
		URLTemplate:   urlTemplate,
		ProvisionedBy: provisionedBy,
		CreatedAt:     now,
	}, nil
}

// Metadata is the creator view of a catalog.
func (c *Catalog) Metadata() CreatorMetadata {
	return CreatorMetadata{
		Creator:     c.Creator,
		DisplayName: c.DisplayName,
		Story:       c.Story,
		AssetCount:  c.AssetCount,
		URLTemplate: c.URLTemplate,
	}
}

// AssetURL expands the template for id. Templates without a placeholder are returned unchanged.
func (c *Catalog) AssetURL(id domain.AssetID) string {
	return strings.ReplaceAll(c.URLTemplate, urlPlaceholder, id.String())
}

type CreatorMetadata struct {
	Creator     domain.Address
	DisplayName string
	Story       string
	AssetCount  int
	URLTemplate string
}

// Series groups assets under a fixed-width key.
type Series struct {
	Catalog     domain.Address
	ID          domain.SeriesID
	Description string
	CreatedBy   domain.Address
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Asset is a registered unit of provenance.
//
// Tags is an ordered list of fixed-width slots. A zero slot is a vacated
// position left by RemoveTag; the list never shrinks.
type Asset struct {
	Catalog      domain.Address
	ID           domain.AssetID
	SeriesID     domain.SeriesID
	Description  string
	Creator      domain.Address
	Tags         []domain.Tag
	URL          string
	DocumentHash [32]byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AddTag appends tag. Duplicates are permitted.
func (a *Asset) AddTag(tag domain.Tag) {
	a.Tags = append(a.Tags, tag)
}

// RemoveTag removes the first occurrence of tag by shifting later slots left
// and zeroing the vacated trailing slot, so [W K E] becomes [W E 0].
// It reports whether tag was present.
func (a *Asset) RemoveTag(tag domain.Tag) bool {
	for i, t := range a.Tags {
		if t != tag {
			continue
		}
		copy(a.Tags[i:], a.Tags[i+1:])
		a.Tags[len(a.Tags)-1] = domain.Tag{}
		return true
	}
	return false
}

// ValidateDescription enforces MaxDescriptionLength.
func ValidateDescription(description string) error {
	if pstrings.Length(description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description too large")
	}
	return nil
}
