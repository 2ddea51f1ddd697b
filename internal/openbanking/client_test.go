package openbanking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "verigate/pkg/domain-errors"
)

func TestCreateCollectionSendsCredentials(t *testing.T) {
	var gotID, gotKey string
	var gotBody CreateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/collections", r.URL.Path)
		gotID = r.Header.Get("X-Client-Id")
		gotKey = r.Header.Get("X-Client-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Collection{
			ID:             "col-1",
			ExternalUserID: gotBody.ExternalUserID,
			Status:         "pending",
			RedirectURL:    "https://flow.example/col-1",
			CreatedAt:      time.Now().UTC(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "cid", "ckey", 5*time.Second)
	collection, err := client.CreateCollection(context.Background(), CreateRequest{
		ExternalUserID: "user-1",
		CallbackURL:    "https://app.example/done",
	})
	require.NoError(t, err)

	assert.Equal(t, "cid", gotID)
	assert.Equal(t, "ckey", gotKey)
	assert.Equal(t, "user-1", gotBody.ExternalUserID)
	assert.Equal(t, "col-1", collection.ID)
	assert.Equal(t, "pending", collection.Status)
	assert.NotEmpty(t, collection.RedirectURL)
}

func TestGetCollectionNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "cid", "ckey", 5*time.Second)
	_, err := client.GetCollection(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestMissingCredentialsNeverCallProvider(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "", 5*time.Second)
	_, err := client.GetCollection(context.Background(), "col-1")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))
	assert.False(t, called)
}

func TestProviderOutageIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "cid", "ckey", time.Second)
	_, err := client.GetCollection(context.Background(), "col-1")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}

func TestProviderRejectionIsUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"unsupported bank"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "cid", "ckey", 5*time.Second)
	_, err := client.CreateCollection(context.Background(), CreateRequest{ExternalUserID: "user-1"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUpstream))
	assert.Contains(t, err.Error(), "422")
}
