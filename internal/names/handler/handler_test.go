package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accessstore "provenance/internal/access/store"
	"provenance/internal/names/service"
	"provenance/internal/names/store"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	txcontext "provenance/pkg/platform/tx"
	"provenance/pkg/testutil"
)

var (
	owner = domain.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	alice = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	bob   = domain.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

// stubValidator treats the token as the caller's address.
type stubValidator struct{}

func (stubValidator) CallerFromToken(token string) (domain.Address, error) {
	a, err := domain.ParseAddress(token)
	if err != nil {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "bad token")
	}
	return a, nil
}

func newNamesRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(store.NewInMemory(), accessstore.NewInMemory(), txcontext.NewLockRunner(), owner)
	require.NoError(t, svc.Bootstrap(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	r := chi.NewRouter()
	New(svc, logger, stubValidator{}).Register(r)
	return r
}

func TestSetNameRequiresToken(t *testing.T) {
	router := newNamesRouter(t)
	req := testutil.NewJSONRequest(t, http.MethodPut, "/names/"+alice.String(), map[string]string{"name": "Alice"})

	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestSetNameThenLookups(t *testing.T) {
	router := newNamesRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPut, "/names/"+alice.String(), map[string]string{"name": "Alice"})
	rr := testutil.DoRequest(router, testutil.WithBearer(req, alice.String()))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/names/"+alice.String(), nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	byAddr := testutil.UnmarshalResponse[nameResponse](t, rr)
	assert.Equal(t, "Alice", byAddr.Name)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/names/by-name/ALICE", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	byName := testutil.UnmarshalResponse[nameResponse](t, rr)
	assert.Equal(t, alice, byName.Address)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/names/availability?name=aLiCe", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	avail := testutil.UnmarshalResponse[availabilityResponse](t, rr)
	assert.False(t, avail.Available)
}

func TestSetNameConflicts(t *testing.T) {
	router := newNamesRouter(t)
	put := func(caller, target domain.Address, name string) int {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/names/"+target.String(), map[string]string{"name": name})
		return testutil.DoRequest(router, testutil.WithBearer(req, caller.String())).Code
	}

	require.Equal(t, http.StatusOK, put(alice, alice, "Mike"))

	req := testutil.NewJSONRequest(t, http.MethodPut, "/names/"+bob.String(), map[string]string{"name": "mIkE"})
	rr := testutil.DoRequest(router, testutil.WithBearer(req, bob.String()))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, string(dErrors.CodeNameUnavailable))

	req = testutil.NewJSONRequest(t, http.MethodPut, "/names/"+alice.String(), map[string]string{"name": "Clem"})
	rr = testutil.DoRequest(router, testutil.WithBearer(req, alice.String()))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, string(dErrors.CodeNameAlreadySet))

	assert.Equal(t, http.StatusUnauthorized, put(alice, bob, "Bob"), "strangers cannot name others")
}

func TestWriterEndpoints(t *testing.T) {
	router := newNamesRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/names/writers", map[string]string{"account": bob.String()})
	rr := testutil.DoRequest(router, testutil.WithBearer(req, alice.String()))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	req = testutil.NewJSONRequest(t, http.MethodPost, "/names/writers", map[string]string{"account": bob.String()})
	rr = testutil.DoRequest(router, testutil.WithBearer(req, owner.String()))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	req = testutil.NewJSONRequest(t, http.MethodPut, "/names/"+alice.String(), map[string]string{"name": "Alice"})
	rr = testutil.DoRequest(router, testutil.WithBearer(req, bob.String()))
	testutil.AssertStatus(t, rr, http.StatusOK)

	req = testutil.NewJSONRequest(t, http.MethodDelete, "/names/writers/"+bob.String(), nil)
	rr = testutil.DoRequest(router, testutil.WithBearer(req, owner.String()))
	testutil.AssertStatus(t, rr, http.StatusNoContent)
}

func TestInvalidInput(t *testing.T) {
	router := newNamesRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/names/not-an-address", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))

	req := testutil.NewJSONRequest(t, http.MethodPut, "/names/"+alice.String(), map[string]any{"name": "A", "extra": 1})
	rr = testutil.DoRequest(router, testutil.WithBearer(req, alice.String()))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func TestUnboundCatalogIsZero(t *testing.T) {
	router := newNamesRouter(t)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/names/"+alice.String()+"/catalog", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[catalogLinkResponse](t, rr)
	assert.True(t, resp.Catalog.IsZero())
}
