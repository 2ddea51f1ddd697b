package openbanking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	dErrors "verigate/pkg/domain-errors"
)

var tracer = otel.Tracer("verigate/internal/openbanking")

const maxResponseBody = 1 << 20

// Collection is one open-banking data collection run. The user completes the
// bank login in the provider's hosted flow at RedirectURL; Status moves from
// pending to completed or failed as the provider gathers statements.
type Collection struct {
	ID             string    `json:"id"`
	ExternalUserID string    `json:"externalUserId"`
	Status         string    `json:"status"`
	RedirectURL    string    `json:"redirectUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreateRequest starts a collection for a user.
type CreateRequest struct {
	ExternalUserID string `json:"externalUserId"`
	CallbackURL    string `json:"callbackUrl,omitempty"`
}

// Client talks to the open-banking provider. Auth is a static client id and
// key pair sent as headers on every call.
type Client struct {
	baseURL   string
	clientID  string
	clientKey string
	http      *http.Client
}

// NewClient builds the provider client. timeout bounds each call end to end.
func NewClient(baseURL, clientID, clientKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		clientID:  clientID,
		clientKey: clientKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// CreateCollection starts a new collection run and returns the hosted-flow
// redirect for the user.
func (c *Client) CreateCollection(ctx context.Context, req CreateRequest) (*Collection, error) {
	ctx, span := tracer.Start(ctx, "openbanking.CreateCollection",
		trace.WithAttributes(attribute.String("external_user_id", req.ExternalUserID)))
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "encode collection request", err)
	}
	var collection Collection
	if err := c.do(ctx, http.MethodPost, "/api/v1/collections", body, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetCollection fetches the current state of a collection run.
func (c *Client) GetCollection(ctx context.Context, id string) (*Collection, error) {
	ctx, span := tracer.Start(ctx, "openbanking.GetCollection",
		trace.WithAttributes(attribute.String("collection_id", id)))
	defer span.End()

	var collection Collection
	if err := c.do(ctx, http.MethodGet, "/api/v1/collections/"+id, nil, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.clientID == "" || c.clientKey == "" {
		return dErrors.New(dErrors.CodeInternal, "open-banking provider credentials not configured")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "build provider request", err)
	}
	req.Header.Set("X-Client-Id", c.clientID)
	req.Header.Set("X-Client-Key", c.clientKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "open-banking provider unreachable", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUpstream, "read provider response", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "collection not found at provider")
	case resp.StatusCode >= 400:
		return dErrors.New(dErrors.CodeUpstream,
			fmt.Sprintf("provider rejected request with status %d: %s", resp.StatusCode, truncate(payload, 256)))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return dErrors.Wrap(dErrors.CodeUpstream, "provider returned malformed data", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
