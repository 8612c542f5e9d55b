// Package events defines the structured events emitted by every mutating
// registry operation. Field order is part of the contract: indexers consume
// fields positionally, so constructors fix the order once.
package events

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"provenance/pkg/domain"
	"provenance/pkg/requestcontext"
)

// Name identifies an event kind.
type Name string

const (
	NameSet                  Name = "NameSet"
	CatalogAddressSet        Name = "CatalogAddressSet"
	RoleGranted              Name = "RoleGranted"
	RoleRevoked              Name = "RoleRevoked"
	CatalogProvisioned       Name = "CatalogProvisioned"
	SeriesCreated            Name = "SeriesCreated"
	SeriesDescriptionUpdated Name = "SeriesDescriptionUpdated"
	AssetRegistered          Name = "AssetRegistered"
	AssetTagsAdded           Name = "AssetTagsAdded"
	AssetDescriptionUpdated  Name = "AssetDescriptionUpdated"
	AssetTagRemoved          Name = "AssetTagRemoved"
)

// Field is one positional event argument.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Event is transport-agnostic so the recorder, the outbox and the relay can share it.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Name      Name           `json:"name"`
	Source    domain.Address `json:"source"`
	Fields    []Field        `json:"fields"`
	Invoker   domain.Address `json:"invoker"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Value returns the named field's value, or nil when absent.
func (e Event) Value(name string) any {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// Publisher accepts events. Implementations bound to a transaction must only
// make an event visible once that transaction commits.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Stamp fills identity, correlation and time from the request context.
func Stamp(ctx context.Context, e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Invoker.IsZero() {
		e.Invoker = requestcontext.Caller(ctx)
	}
	e.RequestID = requestcontext.RequestID(ctx)
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	return e
}

func newEvent(name Name, source domain.Address, fields ...Field) Event {
	return Event{Name: name, Source: source, Fields: fields}
}

func NewNameSet(registry, address domain.Address, name string) Event {
	return newEvent(NameSet, registry,
		Field{"address", address},
		Field{"name", name},
	)
}

func NewCatalogAddressSet(registry, creator, catalog domain.Address) Event {
	return newEvent(CatalogAddressSet, registry,
		Field{"creator", creator},
		Field{"catalog", catalog},
	)
}

// NewRoleGranted carries the keccak role id, matching the on-chain role encoding.
func NewRoleGranted(source domain.Address, role [32]byte, account, sender domain.Address) Event {
	return newEvent(RoleGranted, source,
		Field{"role", roleHex(role)},
		Field{"account", account},
		Field{"sender", sender},
	)
}

func NewRoleRevoked(source domain.Address, role [32]byte, account, sender domain.Address) Event {
	return newEvent(RoleRevoked, source,
		Field{"role", roleHex(role)},
		Field{"account", account},
		Field{"sender", sender},
	)
}

func NewCatalogProvisioned(factory, creator, catalog domain.Address, story string, invoker domain.Address) Event {
	e := newEvent(CatalogProvisioned, factory,
		Field{"creator", creator},
		Field{"catalog", catalog},
		Field{"story", story},
		Field{"invoker", invoker},
	)
	e.Invoker = invoker
	return e
}

func NewSeriesCreated(catalog, creator domain.Address, seriesID domain.SeriesID, description string, invoker domain.Address) Event {
	e := newEvent(SeriesCreated, catalog,
		Field{"creator", creator},
		Field{"seriesId", seriesID},
		Field{"description", description},
		Field{"invoker", invoker},
	)
	e.Invoker = invoker
	return e
}

func NewSeriesDescriptionUpdated(catalog domain.Address, seriesID domain.SeriesID, description string, invoker domain.Address) Event {
	e := newEvent(SeriesDescriptionUpdated, catalog,
		Field{"seriesId", seriesID},
		Field{"description", description},
		Field{"invoker", invoker},
	)
	e.Invoker = invoker
	return e
}

func NewAssetRegistered(catalog domain.Address, assetID domain.AssetID, description string, seriesID domain.SeriesID, creator, invoker domain.Address) Event {
	e := newEvent(AssetRegistered, catalog,
		Field{"assetId", assetID},
		Field{"description", description},
		Field{"seriesId", seriesID},
		Field{"creator", creator},
		Field{"invoker", invoker},
	)
	e.Invoker = invoker
	return e
}

func NewAssetTagsAdded(catalog domain.Address, assetID domain.AssetID, tags []domain.Tag) Event {
	return newEvent(AssetTagsAdded, catalog,
		Field{"assetId", assetID},
		Field{"tags", append([]domain.Tag(nil), tags...)},
	)
}

func NewAssetDescriptionUpdated(catalog domain.Address, assetID domain.AssetID, description string, invoker domain.Address) Event {
	e := newEvent(AssetDescriptionUpdated, catalog,
		Field{"assetId", assetID},
		Field{"description", description},
		Field{"invoker", invoker},
	)
	e.Invoker = invoker
	return e
}

func NewAssetTagRemoved(catalog domain.Address, assetID domain.AssetID, tag domain.Tag, invoker domain.Address) Event {
	e := newEvent(AssetTagRemoved, catalog,
		Field{"assetId", assetID},
		Field{"tag", tag},
		Field{"invoker", invoker},
	)
	e.Invoker = invoker
	return e
}

func roleHex(role [32]byte) string {
	return "0x" + hex.EncodeToString(role[:])
}
