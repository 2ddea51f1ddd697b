package openbanking

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verigate/internal/platform/middleware"
	"verigate/pkg/platform/httputil"

	dErrors "verigate/pkg/domain-errors"
)

// Provider is the collection surface the handler needs; *Client implements it.
type Provider interface {
	CreateCollection(ctx context.Context, req CreateRequest) (*Collection, error)
	GetCollection(ctx context.Context, id string) (*Collection, error)
}

// Handler wires the open-banking collection endpoints to the provider client.
type Handler struct {
	provider Provider
	logger   *slog.Logger
}

func NewHandler(provider Provider, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, logger: logger}
}

// Register mounts the collection endpoints; both require bearer auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/openbanking/collections", h.HandleCreate)
	r.Get("/openbanking/collections/{id}", h.HandleGet)
}

type createRequest struct {
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// HandleCreate handles POST /openbanking/collections requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
			return
		}
	}

	collection, err := h.provider.CreateCollection(ctx, CreateRequest{
		ExternalUserID: userID,
		CallbackURL:    req.CallbackURL,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "collection create failed",
			"request_id", middleware.GetRequestID(ctx),
			"external_user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "collection created",
		"request_id", middleware.GetRequestID(ctx),
		"external_user_id", userID,
		"collection_id", collection.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, collection)
}

// HandleGet handles GET /openbanking/collections/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "collection id is required"))
		return
	}

	collection, err := h.provider.GetCollection(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "collection lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"collection_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	// Collections are user-scoped; never serve another user's run.
	if collection.ExternalUserID != "" && collection.ExternalUserID != userID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "collection not found"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, collection)
}
