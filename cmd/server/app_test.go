package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/platform/config"
	"provenance/internal/platform/token"
	"provenance/pkg/domain"
	"provenance/pkg/testutil"
)

var alice = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

func newMemoryApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SIGNING_KEY", "test-key")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func bearer(t *testing.T, a *app, caller domain.Address) string {
	t.Helper()
	signed, err := token.NewService(a.cfg.Auth.JWTSigningKey, a.cfg.Auth.JWTIssuer).Issue(caller, a.cfg.Auth.TokenTTL)
	require.NoError(t, err)
	return signed
}

func TestMemoryAppServesProvisionedCatalog(t *testing.T) {
	a := newMemoryApp(t)
	assert.Nil(t, a.relay)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/catalogs", map[string]any{
		"creator":      alice,
		"display_name": "Alice",
		"story":        "first catalog",
	})
	rr := testutil.DoRequest(a.router, testutil.WithBearer(req, bearer(t, a, alice)))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	entry := testutil.UnmarshalResponse[struct {
		Catalog domain.Address `json:"catalog"`
	}](t, rr)
	assert.Equal(t, domain.DeriveAddress(a.cfg.Registry.Factory[:], alice[:]), entry.Catalog)

	rr = testutil.DoRequest(a.router, httptest.NewRequest(http.MethodGet, "/names/"+alice.String(), nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "Alice")

	rr = testutil.DoRequest(a.router, httptest.NewRequest(http.MethodGet, "/catalogs/"+entry.Catalog.String(), nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "first catalog")

	rr = testutil.DoRequest(a.router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestBootstrapIsRepeatable(t *testing.T) {
	a := newMemoryApp(t)
	require.NoError(t, a.bootstrap(context.Background()))
}

func TestTokenCommandPrintsSignedToken(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SIGNING_KEY", "test-key")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", alice.String()})
	require.NoError(t, cmd.Execute())

	caller, err := token.NewService("test-key", "provenance").CallerFromToken(string(bytes.TrimSpace(out.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, alice, caller)
}

func TestTokenCommandRejectsBadAddress(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "not-an-address"})
	assert.Error(t, cmd.Execute())
}
