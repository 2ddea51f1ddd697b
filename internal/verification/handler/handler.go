package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verigate/internal/platform/middleware"
	"verigate/internal/sumsub"
	"verigate/internal/verification"
	"verigate/internal/verification/service"
	"verigate/pkg/platform/httputil"

	dErrors "verigate/pkg/domain-errors"
)

const maxWebhookBody = 1 << 20

// Service is the verification orchestration surface the handler needs.
type Service interface {
	Init(ctx context.Context, req service.InitRequest) (*service.InitResult, error)
	Status(ctx context.Context, externalUserID string) (*service.StatusView, error)
	HandleWebhook(ctx context.Context, payload service.WebhookPayload) error
}

// Handler wires the verification endpoints to the verification service.
type Handler struct {
	service       Service
	logger        *slog.Logger
	webhookSecret string
}

// New constructs the verification handler.
func New(service Service, logger *slog.Logger, webhookSecret string) *Handler {
	return &Handler{
		service:       service,
		logger:        logger,
		webhookSecret: webhookSecret,
	}
}

// Register mounts the authenticated UI-facing endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/init", h.HandleInit)
	r.Get("/verification/status", h.HandleStatus)
}

// RegisterWebhook mounts the provider-facing endpoint. It lives outside the
// bearer-auth chain; the provider authenticates with a payload digest.
func (h *Handler) RegisterWebhook(r chi.Router) {
	r.Post("/verification/webhook", h.HandleWebhook)
}

type initRequest struct {
	LevelName string `json:"levelName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type initResponse struct {
	ExternalUserID string `json:"externalUserId"`
	ApplicantID    string `json:"applicantId"`
	WebSDKURL      string `json:"websdkUrl"`
}

// HandleInit handles POST /verification/init requests.
func (h *Handler) HandleInit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req initRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
			return
		}
	}

	result, err := h.service.Init(ctx, service.InitRequest{
		ExternalUserID: userID,
		LevelName:      req.LevelName,
		Email:          req.Email,
		Phone:          req.Phone,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "verification init failed",
			"request_id", requestID,
			"external_user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification initialized",
		"request_id", requestID,
		"external_user_id", result.ExternalUserID,
		"applicant_id", result.ApplicantID,
	)
	httputil.WriteJSON(w, http.StatusOK, initResponse{
		ExternalUserID: result.ExternalUserID,
		ApplicantID:    result.ApplicantID,
		WebSDKURL:      result.WebSDKURL,
	})
}

type statusResponse struct {
	ExternalUserID       string   `json:"externalUserId"`
	ApplicantID          string   `json:"applicantId"`
	Status               string   `json:"status"`
	HasAnySubmittedSteps bool     `json:"hasAnySubmittedSteps"`
	HasRejectedSteps     bool     `json:"hasRejectedSteps"`
	AllStepsGreen        bool     `json:"allStepsGreen"`
	ReviewStatus         string   `json:"reviewStatus"`
	ReviewAnswer         string   `json:"reviewAnswer,omitempty"`
	RejectLabels         []string `json:"rejectLabels,omitempty"`
}

// HandleStatus handles GET /verification/status requests. The externalUserId
// query parameter defaults to the authenticated user.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	externalUserID := r.URL.Query().Get("externalUserId")
	if externalUserID == "" {
		externalUserID = userID
	}

	view, err := h.service.Status(ctx, externalUserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification status failed",
			"request_id", requestID,
			"external_user_id", externalUserID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification status served",
		"request_id", requestID,
		"external_user_id", externalUserID,
		"status", view.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		ExternalUserID:       view.ExternalUserID,
		ApplicantID:          view.ApplicantID,
		Status:               string(view.Status),
		HasAnySubmittedSteps: view.HasAnySubmittedSteps,
		HasRejectedSteps:     view.HasRejectedSteps,
		AllStepsGreen:        view.AllStepsGreen,
		ReviewStatus:         string(view.ReviewStatus),
		ReviewAnswer:         string(view.ReviewAnswer),
		RejectLabels:         view.RejectLabels,
	})
}

// webhookEnvelope mirrors the provider's push payload shape.
type webhookEnvelope struct {
	Type           string `json:"type"`
	ApplicantID    string `json:"applicantId"`
	ExternalUserID string `json:"externalUserId"`
	ReviewResult   struct {
		ReviewAnswer string   `json:"reviewAnswer"`
		RejectLabels []string `json:"rejectLabels"`
	} `json:"reviewResult"`
	CreatedAt string `json:"createdAt"`
}

// HandleWebhook handles POST /verification/webhook deliveries. The provider
// retries on non-200 responses, so every outcome past digest verification
// answers 200; failures are logged and counted instead.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable payload"))
		return
	}

	if h.webhookSecret != "" {
		digest := r.Header.Get("X-Payload-Digest")
		if !sumsub.VerifyWebhookDigest(h.webhookSecret, body, digest) {
			h.logger.WarnContext(ctx, "webhook digest mismatch",
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
			)
			h.acknowledge(w)
			return
		}
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.WarnContext(ctx, "webhook payload undecodable",
			"request_id", requestID,
			"error", err.Error(),
		)
		h.acknowledge(w)
		return
	}

	payload := service.WebhookPayload{
		Type:           verification.EventType(envelope.Type),
		ApplicantID:    envelope.ApplicantID,
		ExternalUserID: envelope.ExternalUserID,
		ReviewAnswer:   verification.NormalizeReviewAnswer(envelope.ReviewResult.ReviewAnswer),
		RejectLabels:   envelope.ReviewResult.RejectLabels,
		CreatedAt:      parseWebhookTime(envelope.CreatedAt),
	}
	if err := h.service.HandleWebhook(ctx, payload); err != nil {
		h.logger.ErrorContext(ctx, "webhook processing failed",
			"request_id", requestID,
			"webhook_type", envelope.Type,
			"external_user_id", envelope.ExternalUserID,
			"error", err,
		)
	}
	h.acknowledge(w)
}

func (h *Handler) acknowledge(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// parseWebhookTime accepts the provider's "2006-01-02 15:04:05+0000" stamp and
// RFC 3339 as a fallback. A zero time defers to the request clock downstream.
func parseWebhookTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02 15:04:05-0700", value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
