package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"verigate/internal/audit"
	"verigate/internal/profile"
	"verigate/internal/sumsub"
	snapcache "verigate/internal/sumsub/cache"
	"verigate/internal/verification"
	"verigate/internal/verification/metrics"
	"verigate/internal/verification/store"
	"verigate/pkg/platform/sentinel"
	"verigate/pkg/requestcontext"

	dErrors "verigate/pkg/domain-errors"
)

var tracer = otel.Tracer("verigate/internal/verification/service")

// ProviderClient is the verification provider surface the service needs.
// internal/sumsub implements it; tests substitute a mock.
type ProviderClient interface {
	CreateApplicant(ctx context.Context, applicant verification.NewApplicant) (string, error)
	FetchApplicantReview(ctx context.Context, applicantID string) (verification.ReviewState, error)
	FetchRequiredStepsStatus(ctx context.Context, applicantID string) (map[string]*verification.StepStatus, error)
	GenerateWebSDKLink(ctx context.Context, externalUserID, levelName string) (string, error)
}

// SnapshotCache is the optional TTL cache in front of the provider fetches.
type SnapshotCache interface {
	Find(ctx context.Context, applicantID string) (*snapcache.Snapshot, error)
	Save(ctx context.Context, applicantID string, snap snapcache.Snapshot) error
	Invalidate(ctx context.Context, applicantID string) error
}

// Service orchestrates the verification flows: applicant creation, status
// polling with reconciliation, and webhook application. It owns no rules
// itself; reconciliation lives in the verification package.
type Service struct {
	provider  ProviderClient
	store     store.Store
	cache     SnapshotCache
	profiles  profile.Reader
	audit     *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	levelName string
}

// New validates required collaborators and builds the service. cache,
// profiles, audit and metrics are optional.
func New(
	provider ProviderClient,
	statusStore store.Store,
	cache SnapshotCache,
	profiles profile.Reader,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	levelName string,
) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider client is required")
	}
	if statusStore == nil {
		return nil, fmt.Errorf("status store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		provider:  provider,
		store:     statusStore,
		cache:     cache,
		profiles:  profiles,
		audit:     auditor,
		metrics:   m,
		logger:    logger,
		levelName: levelName,
	}, nil
}

// InitRequest is the applicant-creation input. Identity fields are optional;
// missing ones are prefilled from the profile store when available.
type InitRequest struct {
	ExternalUserID string
	LevelName      string
	Email          string
	Phone          string
	FirstName      string
	LastName       string
}

// InitResult is returned to the UI so it can embed the capture flow.
type InitResult struct {
	ExternalUserID string
	ApplicantID    string
	WebSDKURL      string
}

// Init creates the provider applicant for a user, or reuses the one on file.
// Idempotency is enforced here, not in the provider client: the store is
// checked first and the provider is only called when no applicant id exists
// for the external user id.
func (s *Service) Init(ctx context.Context, req InitRequest) (*InitResult, error) {
	ctx, span := tracer.Start(ctx, "verification.Init")
	defer span.End()

	externalUserID := req.ExternalUserID
	if externalUserID == "" {
		externalUserID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("external_user_id", externalUserID))

	levelName := req.LevelName
	if levelName == "" {
		levelName = s.levelName
	}

	applicantID, err := s.applicantIDFor(ctx, externalUserID, req, levelName)
	if err != nil {
		return nil, err
	}

	link, err := s.provider.GenerateWebSDKLink(ctx, externalUserID, levelName)
	if err != nil {
		s.metrics.RecordProviderCall("generateWebSDKLink", "error")
		return nil, translateProviderErr(err)
	}
	s.metrics.RecordProviderCall("generateWebSDKLink", "ok")

	return &InitResult{
		ExternalUserID: externalUserID,
		ApplicantID:    applicantID,
		WebSDKURL:      link,
	}, nil
}

func (s *Service) applicantIDFor(ctx context.Context, externalUserID string, req InitRequest, levelName string) (string, error) {
	existing, err := s.store.Get(ctx, externalUserID)
	if err == nil && existing.ApplicantID != "" {
		return existing.ApplicantID, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", dErrors.Wrap(dErrors.CodeInternal, "status store lookup failed", err)
	}

	applicant := verification.NewApplicant{
		ExternalUserID: externalUserID,
		LevelName:      levelName,
		Email:          req.Email,
		Phone:          req.Phone,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	}
	s.prefill(ctx, externalUserID, &applicant)

	applicantID, err := s.provider.CreateApplicant(ctx, applicant)
	if err != nil {
		s.metrics.RecordProviderCall("createApplicant", "error")
		return "", translateProviderErr(err)
	}
	s.metrics.RecordProviderCall("createApplicant", "ok")

	record := verification.Record{
		ExternalUserID: externalUserID,
		ApplicantID:    applicantID,
		Result:         verification.Result{Status: verification.StatusNotVerified},
		Review:         verification.ReviewState{Status: verification.ReviewStatusInit, Answer: verification.AnswerUnknown},
		ObservedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Upsert(ctx, record); err != nil && !errors.Is(err, sentinel.ErrStale) {
		// The applicant exists at the provider; losing the row would recreate
		// it on the next init, so this write failure is fatal to the call.
		return "", dErrors.Wrap(dErrors.CodeInternal, "persist applicant id failed", err)
	}
	return applicantID, nil
}

func (s *Service) prefill(ctx context.Context, externalUserID string, applicant *verification.NewApplicant) {
	if s.profiles == nil {
		return
	}
	if applicant.Email != "" && applicant.Phone != "" && applicant.FirstName != "" && applicant.LastName != "" {
		return
	}
	p, err := s.profiles.Get(ctx, externalUserID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "profile lookup failed",
				"external_user_id", externalUserID,
				"error", err.Error(),
			)
		}
		return
	}
	if applicant.Email == "" {
		applicant.Email = p.Email
	}
	if applicant.Phone == "" {
		applicant.Phone = p.Phone
	}
	if applicant.FirstName == "" {
		applicant.FirstName = p.FirstName
	}
	if applicant.LastName == "" {
		applicant.LastName = p.LastName
	}
}

// StatusView is the full reconciled view returned to the UI.
type StatusView struct {
	ExternalUserID       string
	ApplicantID          string
	Status               verification.Status
	HasAnySubmittedSteps bool
	HasRejectedSteps     bool
	AllStepsGreen        bool
	ReviewStatus         verification.ReviewStatus
	ReviewAnswer         verification.ReviewAnswer
	RejectLabels         []string
}

// Status fetches current provider state, reconciles it, persists the result
// best-effort, and returns the reconciled view. A failed persist is logged
// and counted but never fails the request: the freshly computed status is
// still useful to the caller.
func (s *Service) Status(ctx context.Context, externalUserID string) (*StatusView, error) {
	ctx, span := tracer.Start(ctx, "verification.Status",
		trace.WithAttributes(attribute.String("external_user_id", externalUserID)))
	defer span.End()

	existing, err := s.store.Get(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification on file for user")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "status store lookup failed", err)
	}
	if existing.ApplicantID == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "no applicant on file for user")
	}

	snap, err := s.fetchSnapshot(ctx, existing.ApplicantID)
	if err != nil {
		return nil, err
	}

	result := verification.Reconcile(snap.Review, snap.Steps)
	s.metrics.RecordStatus(string(result.Status))

	record := verification.Record{
		ExternalUserID: externalUserID,
		ApplicantID:    existing.ApplicantID,
		Result:         result,
		Review:         snap.Review,
		ObservedAt:     snap.FetchedAt,
	}
	s.persistBestEffort(ctx, record, existing.Result.Status)

	return &StatusView{
		ExternalUserID:       externalUserID,
		ApplicantID:          existing.ApplicantID,
		Status:               result.Status,
		HasAnySubmittedSteps: result.HasAnySubmittedSteps,
		HasRejectedSteps:     result.HasRejectedSteps,
		AllStepsGreen:        result.AllStepsGreen,
		ReviewStatus:         snap.Review.Status,
		ReviewAnswer:         snap.Review.Answer,
		RejectLabels:         snap.Review.RejectLabels,
	}, nil
}

// fetchSnapshot serves from the TTL cache when possible, otherwise fetches
// review and step state from the provider in parallel.
func (s *Service) fetchSnapshot(ctx context.Context, applicantID string) (*snapcache.Snapshot, error) {
	if s.cache != nil {
		if snap, err := s.cache.Find(ctx, applicantID); err == nil {
			s.metrics.RecordSnapshotCache("hit")
			return snap, nil
		} else if !errors.Is(err, snapcache.ErrNotFound) {
			s.logger.WarnContext(ctx, "snapshot cache lookup failed",
				"applicant_id", applicantID,
				"error", err.Error(),
			)
		}
		s.metrics.RecordSnapshotCache("miss")
	} else {
		s.metrics.RecordSnapshotCache("bypass")
	}

	var (
		review verification.ReviewState
		steps  map[string]*verification.StepStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		review, err = s.provider.FetchApplicantReview(gctx, applicantID)
		s.recordCall("fetchApplicantReview", err)
		return err
	})
	g.Go(func() error {
		var err error
		steps, err = s.provider.FetchRequiredStepsStatus(gctx, applicantID)
		s.recordCall("fetchRequiredStepsStatus", err)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateProviderErr(err)
	}

	snap := snapcache.Snapshot{Review: review, Steps: steps, FetchedAt: requestcontext.Now(ctx)}
	if s.cache != nil {
		if err := s.cache.Save(ctx, applicantID, snap); err != nil {
			s.logger.WarnContext(ctx, "snapshot cache save failed",
				"applicant_id", applicantID,
				"error", err.Error(),
			)
		}
	}
	return &snap, nil
}

func (s *Service) recordCall(op string, err error) {
	if err != nil {
		s.metrics.RecordProviderCall(op, "error")
		return
	}
	s.metrics.RecordProviderCall(op, "ok")
}

func (s *Service) persistBestEffort(ctx context.Context, record verification.Record, previous verification.Status) {
	err := s.store.Upsert(ctx, record)
	switch {
	case err == nil:
		if record.Result.Status != previous {
			s.audit.Emit(ctx, audit.Event{
				Type:           audit.EventStatusChanged,
				ExternalUserID: record.ExternalUserID,
				ApplicantID:    record.ApplicantID,
				Status:         string(record.Result.Status),
				PreviousStatus: string(previous),
			})
		}
	case errors.Is(err, sentinel.ErrStale):
		// A newer webhook write already landed; the computed view is still
		// valid for this response.
		s.logger.InfoContext(ctx, "status write superseded by newer observation",
			"external_user_id", record.ExternalUserID,
		)
	default:
		s.metrics.RecordPersistFailure()
		s.logger.ErrorContext(ctx, "status persist failed",
			"external_user_id", record.ExternalUserID,
			"error", err.Error(),
		)
		s.audit.Emit(ctx, audit.Event{
			Type:           audit.EventPersistFailed,
			ExternalUserID: record.ExternalUserID,
			ApplicantID:    record.ApplicantID,
			Status:         string(record.Result.Status),
			Detail:         err.Error(),
		})
	}
}

// WebhookPayload is the decoded provider push event.
type WebhookPayload struct {
	Type           verification.EventType
	ApplicantID    string
	ExternalUserID string
	ReviewAnswer   verification.ReviewAnswer
	RejectLabels   []string
	CreatedAt      time.Time
}

// HandleWebhook applies one provider push event. Errors are returned for
// logging only; the HTTP boundary always answers 200 to the provider.
func (s *Service) HandleWebhook(ctx context.Context, payload WebhookPayload) error {
	ctx, span := tracer.Start(ctx, "verification.HandleWebhook",
		trace.WithAttributes(attribute.String("webhook_type", string(payload.Type))))
	defer span.End()

	if payload.ExternalUserID == "" {
		s.metrics.RecordWebhook(string(payload.Type), "dropped")
		return fmt.Errorf("webhook without externalUserId")
	}

	update := verification.Interpret(payload.Type, payload.ReviewAnswer, payload.RejectLabels)
	if update == nil {
		s.metrics.RecordWebhook(string(payload.Type), "ignored")
		return nil
	}

	observedAt := payload.CreatedAt
	if observedAt.IsZero() {
		observedAt = requestcontext.Now(ctx)
	}

	record := verification.Record{
		ExternalUserID: payload.ExternalUserID,
		ApplicantID:    payload.ApplicantID,
		Result:         update.Result,
		Review:         update.Review,
		ObservedAt:     observedAt,
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrStale) {
			s.metrics.RecordWebhook(string(payload.Type), "stale")
			return nil
		}
		s.metrics.RecordWebhook(string(payload.Type), "failed")
		s.metrics.RecordPersistFailure()
		return fmt.Errorf("apply webhook %s: %w", payload.Type, err)
	}
	s.metrics.RecordWebhook(string(payload.Type), "applied")
	s.metrics.RecordStatus(string(update.Result.Status))

	if s.cache != nil && payload.ApplicantID != "" {
		if err := s.cache.Invalidate(ctx, payload.ApplicantID); err != nil {
			s.logger.WarnContext(ctx, "snapshot invalidation failed",
				"applicant_id", payload.ApplicantID,
				"error", err.Error(),
			)
		}
	}

	s.audit.Emit(ctx, audit.Event{
		Type:           audit.EventWebhookReceived,
		ExternalUserID: payload.ExternalUserID,
		ApplicantID:    payload.ApplicantID,
		Status:         string(update.Result.Status),
		WebhookType:    string(payload.Type),
	})
	return nil
}

// translateProviderErr maps the provider error taxonomy onto domain codes.
func translateProviderErr(err error) error {
	var pe *sumsub.Error
	if !errors.As(err, &pe) {
		return dErrors.Wrap(dErrors.CodeInternal, "provider call failed", err)
	}
	switch pe.Category {
	case sumsub.ErrorConfiguration:
		return dErrors.Wrap(dErrors.CodeInternal, "verification provider credentials not configured", err)
	case sumsub.ErrorHTTP:
		if pe.StatusCode == 404 {
			return dErrors.Wrap(dErrors.CodeNotFound, "applicant not found at provider", err)
		}
		return dErrors.Wrap(dErrors.CodeUpstream, fmt.Sprintf("provider rejected request with status %d", pe.StatusCode), err)
	case sumsub.ErrorUnavailable:
		return dErrors.Wrap(dErrors.CodeUnavailable, "verification provider unreachable", err)
	default:
		return dErrors.Wrap(dErrors.CodeUpstream, "provider returned malformed data", err)
	}
}
