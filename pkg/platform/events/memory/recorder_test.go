package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/pkg/domain"
	"provenance/pkg/platform/events"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	addr := domain.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

	require.NoError(t, r.Emit(ctx, events.NewNameSet(domain.Address{}, addr, "Mike")))
	require.NoError(t, r.Emit(ctx, events.NewCatalogAddressSet(domain.Address{}, addr, domain.Address{})))
	require.NoError(t, r.Emit(ctx, events.NewNameSet(domain.Address{}, addr, "Clem")))

	assert.Len(t, r.All(), 3)
	assert.Len(t, r.Named(events.NameSet), 2)
	assert.Equal(t, "Clem", r.Recent(1)[0].Value("name"))
	assert.Len(t, r.Recent(10), 3)

	r.Clear()
	assert.Empty(t, r.All())
}
