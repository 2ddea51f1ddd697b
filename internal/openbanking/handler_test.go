package openbanking

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"verigate/internal/platform/middleware"

	dErrors "verigate/pkg/domain-errors"
)

// stubProvider serves canned collections keyed by id.
type stubProvider struct {
	collections map[string]*Collection
	createErr   error
}

func (s *stubProvider) CreateCollection(_ context.Context, req CreateRequest) (*Collection, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	c := &Collection{
		ID:             "col-1",
		ExternalUserID: req.ExternalUserID,
		Status:         "pending",
		RedirectURL:    "https://flow.example/col-1",
		CreatedAt:      time.Now().UTC(),
	}
	s.collections[c.ID] = c
	return c, nil
}

func (s *stubProvider) GetCollection(_ context.Context, id string) (*Collection, error) {
	c, ok := s.collections[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "collection not found at provider")
	}
	return c, nil
}

func newRouter(provider Provider, authedUser string) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := NewHandler(provider, logger)
	r := chi.NewRouter()
	if authedUser != "" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), authedUser)))
			})
		})
	}
	h.Register(r)
	return r
}

func TestCreateRequiresAuth(t *testing.T) {
	router := newRouter(&stubProvider{collections: map[string]*Collection{}}, "")
	req := httptest.NewRequest(http.MethodPost, "/openbanking/collections", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a user, got %d", rec.Code)
	}
}

func TestCreateThenGetCollection(t *testing.T) {
	provider := &stubProvider{collections: map[string]*Collection{}}
	router := newRouter(provider, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/openbanking/collections", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating collection, got %d: %s", rec.Code, rec.Body.String())
	}

	var created Collection
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode collection: %v", err)
	}
	if created.ID == "" || created.RedirectURL == "" {
		t.Fatalf("expected id and redirect url, got %+v", created)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/openbanking/collections/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching collection, got %d", getRec.Code)
	}

	var fetched Collection
	if err := json.NewDecoder(getRec.Body).Decode(&fetched); err != nil {
		t.Fatalf("failed to decode collection: %v", err)
	}
	if fetched.ID != created.ID || fetched.Status != "pending" {
		t.Fatalf("unexpected collection: %+v", fetched)
	}
}

func TestGetHidesOtherUsersCollections(t *testing.T) {
	provider := &stubProvider{collections: map[string]*Collection{
		"col-9": {ID: "col-9", ExternalUserID: "someone-else", Status: "completed"},
	}}
	router := newRouter(provider, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/openbanking/collections/col-9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's collection, got %d", rec.Code)
	}
}

func TestCreatePropagatesProviderErrors(t *testing.T) {
	provider := &stubProvider{
		collections: map[string]*Collection{},
		createErr:   dErrors.New(dErrors.CodeUnavailable, "open-banking provider unreachable"),
	}
	router := newRouter(provider, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/openbanking/collections", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if envelope.Error != "unavailable" {
		t.Fatalf("expected unavailable code, got %q", envelope.Error)
	}
}
