package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verigate/internal/profile"
	"verigate/internal/sumsub"
	"verigate/internal/verification"
	"verigate/internal/verification/service/mocks"
	"verigate/internal/verification/store"

	dErrors "verigate/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProviderClient
	store    *store.InMemoryStore
	profiles *profile.InMemoryStore
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockProviderClient(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.profiles = profile.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error
	s.service, err = New(s.provider, s.store, nil, s.profiles, nil, nil, logger, "basic-kyc-level")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestNewRequiresCollaborators() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(nil, s.store, nil, nil, nil, nil, logger, "l")
	s.Error(err)
	s.Contains(err.Error(), "provider client is required")

	_, err = New(s.provider, nil, nil, nil, nil, nil, logger, "l")
	s.Error(err)
	s.Contains(err.Error(), "status store is required")
}

// =============================================================================
// Init
// =============================================================================

func (s *ServiceSuite) TestInitCreatesApplicantWhenNoneOnFile() {
	ctx := context.Background()

	s.provider.EXPECT().
		CreateApplicant(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, applicant verification.NewApplicant) (string, error) {
			s.Equal("user-1", applicant.ExternalUserID)
			s.Equal("basic-kyc-level", applicant.LevelName)
			return "app-1", nil
		})
	s.provider.EXPECT().
		GenerateWebSDKLink(gomock.Any(), "user-1", "basic-kyc-level").
		Return("https://sdk.example/p/1", nil)

	result, err := s.service.Init(ctx, InitRequest{ExternalUserID: "user-1"})
	s.Require().NoError(err)
	s.Equal("user-1", result.ExternalUserID)
	s.Equal("app-1", result.ApplicantID)
	s.Equal("https://sdk.example/p/1", result.WebSDKURL)

	record, err := s.store.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("app-1", record.ApplicantID)
	s.Equal(verification.StatusNotVerified, record.Result.Status)
}

func (s *ServiceSuite) TestInitReusesApplicantOnFile() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, verification.Record{
		ExternalUserID: "user-1",
		ApplicantID:    "app-existing",
		Result:         verification.Result{Status: verification.StatusPending},
		ObservedAt:     time.Now(),
	}))

	// CreateApplicant must not be called; only the link is regenerated.
	s.provider.EXPECT().
		GenerateWebSDKLink(gomock.Any(), "user-1", "basic-kyc-level").
		Return("https://sdk.example/p/2", nil)

	result, err := s.service.Init(ctx, InitRequest{ExternalUserID: "user-1"})
	s.Require().NoError(err)
	s.Equal("app-existing", result.ApplicantID)
}

func (s *ServiceSuite) TestInitMintsExternalUserID() {
	s.provider.EXPECT().CreateApplicant(gomock.Any(), gomock.Any()).Return("app-1", nil)
	s.provider.EXPECT().GenerateWebSDKLink(gomock.Any(), gomock.Any(), gomock.Any()).Return("https://sdk.example/p/3", nil)

	result, err := s.service.Init(context.Background(), InitRequest{})
	s.Require().NoError(err)
	s.NotEmpty(result.ExternalUserID)
}

func (s *ServiceSuite) TestInitPrefillsFromProfile() {
	ctx := context.Background()
	s.Require().NoError(s.profiles.Put(ctx, profile.Profile{
		UserID:    "user-1",
		Email:     "ada@example.com",
		Phone:     "+27000000000",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}))

	s.provider.EXPECT().
		CreateApplicant(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, applicant verification.NewApplicant) (string, error) {
			s.Equal("ada@example.com", applicant.Email)
			s.Equal("Ada", applicant.FirstName)
			return "app-1", nil
		})
	s.provider.EXPECT().GenerateWebSDKLink(gomock.Any(), gomock.Any(), gomock.Any()).Return("u", nil)

	_, err := s.service.Init(ctx, InitRequest{ExternalUserID: "user-1"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestInitTranslatesProviderErrors() {
	s.provider.EXPECT().
		CreateApplicant(gomock.Any(), gomock.Any()).
		Return("", &sumsub.Error{Category: sumsub.ErrorHTTP, Op: "createApplicant", StatusCode: 401, Body: "bad sig"})

	_, err := s.service.Init(context.Background(), InitRequest{ExternalUserID: "user-1"})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUpstream))
}

// =============================================================================
// Status
// =============================================================================

func (s *ServiceSuite) seedApplicant(userID, applicantID string) {
	s.Require().NoError(s.store.Upsert(context.Background(), verification.Record{
		ExternalUserID: userID,
		ApplicantID:    applicantID,
		Result:         verification.Result{Status: verification.StatusNotVerified},
		ObservedAt:     time.Now().Add(-time.Hour),
	}))
}

func (s *ServiceSuite) TestStatusUnknownUserReturnsNotFound() {
	_, err := s.service.Status(context.Background(), "nobody")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestStatusReconcilesAndPersists() {
	ctx := context.Background()
	s.seedApplicant("user-1", "app-1")

	s.provider.EXPECT().
		FetchApplicantReview(gomock.Any(), "app-1").
		Return(verification.ReviewState{
			Status: verification.ReviewStatusCompleted,
			Answer: verification.AnswerGreen,
		}, nil)
	s.provider.EXPECT().
		FetchRequiredStepsStatus(gomock.Any(), "app-1").
		Return(map[string]*verification.StepStatus{
			"IDENTITY": {Answer: verification.AnswerGreen},
			"SELFIE":   {Answer: verification.AnswerGreen},
		}, nil)

	view, err := s.service.Status(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(verification.StatusVerified, view.Status)
	s.True(view.AllStepsGreen)
	s.Equal("app-1", view.ApplicantID)

	record, err := s.store.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(verification.StatusVerified, record.Result.Status)
}

func (s *ServiceSuite) TestStatusSurvivesPersistFailure() {
	ctx := context.Background()

	failing := &failingStore{inner: store.NewInMemoryStore()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(s.provider, failing, nil, nil, nil, nil, logger, "basic-kyc-level")
	s.Require().NoError(err)

	s.Require().NoError(failing.inner.Upsert(ctx, verification.Record{
		ExternalUserID: "user-1",
		ApplicantID:    "app-1",
		Result:         verification.Result{Status: verification.StatusNotVerified},
		ObservedAt:     time.Now().Add(-time.Hour),
	}))
	failing.failWrites = true

	s.provider.EXPECT().
		FetchApplicantReview(gomock.Any(), "app-1").
		Return(verification.ReviewState{Status: verification.ReviewStatusPending, Answer: verification.AnswerUnknown}, nil)
	s.provider.EXPECT().
		FetchRequiredStepsStatus(gomock.Any(), "app-1").
		Return(map[string]*verification.StepStatus{"IDENTITY": {Answer: verification.AnswerGreen}}, nil)

	view, err := svc.Status(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(verification.StatusPending, view.Status)
}

func (s *ServiceSuite) TestStatusTranslatesProviderOutage() {
	s.seedApplicant("user-1", "app-1")

	outage := &sumsub.Error{Category: sumsub.ErrorUnavailable, Op: "fetchApplicantReview", Underlying: errors.New("dial tcp: refused")}
	s.provider.EXPECT().FetchApplicantReview(gomock.Any(), "app-1").Return(verification.ReviewState{}, outage).AnyTimes()
	s.provider.EXPECT().FetchRequiredStepsStatus(gomock.Any(), "app-1").Return(nil, outage).AnyTimes()

	_, err := s.service.Status(context.Background(), "user-1")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))
}

// =============================================================================
// Webhook
// =============================================================================

func (s *ServiceSuite) TestWebhookReviewedGreenVerifies() {
	ctx := context.Background()
	s.seedApplicant("user-1", "app-1")

	err := s.service.HandleWebhook(ctx, WebhookPayload{
		Type:           verification.EventApplicantReviewed,
		ApplicantID:    "app-1",
		ExternalUserID: "user-1",
		ReviewAnswer:   verification.AnswerGreen,
		CreatedAt:      time.Now(),
	})
	s.Require().NoError(err)

	record, err := s.store.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(verification.StatusVerified, record.Result.Status)
}

func (s *ServiceSuite) TestWebhookTerminalRejectionPins() {
	ctx := context.Background()
	s.seedApplicant("user-1", "app-1")

	err := s.service.HandleWebhook(ctx, WebhookPayload{
		Type:           verification.EventApplicantReviewed,
		ApplicantID:    "app-1",
		ExternalUserID: "user-1",
		ReviewAnswer:   verification.AnswerRed,
		RejectLabels:   []string{"FORGERY"},
		CreatedAt:      time.Now(),
	})
	s.Require().NoError(err)

	record, err := s.store.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(verification.StatusRejected, record.Result.Status)

	// A later lifecycle event cannot downgrade the terminal status.
	err = s.service.HandleWebhook(ctx, WebhookPayload{
		Type:           verification.EventApplicantPending,
		ApplicantID:    "app-1",
		ExternalUserID: "user-1",
		CreatedAt:      time.Now().Add(time.Minute),
	})
	s.Require().NoError(err)

	record, err = s.store.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(verification.StatusRejected, record.Result.Status)
}

func (s *ServiceSuite) TestWebhookStaleEventIsDropped() {
	ctx := context.Background()
	now := time.Now()
	s.Require().NoError(s.store.Upsert(ctx, verification.Record{
		ExternalUserID: "user-1",
		ApplicantID:    "app-1",
		Result:         verification.Result{Status: verification.StatusVerified},
		ObservedAt:     now,
	}))

	err := s.service.HandleWebhook(ctx, WebhookPayload{
		Type:           verification.EventApplicantPending,
		ApplicantID:    "app-1",
		ExternalUserID: "user-1",
		CreatedAt:      now.Add(-time.Minute),
	})
	s.Require().NoError(err)

	record, err := s.store.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(verification.StatusVerified, record.Result.Status)
}

func (s *ServiceSuite) TestWebhookUnknownTypeIgnored() {
	err := s.service.HandleWebhook(context.Background(), WebhookPayload{
		Type:           verification.EventType("applicantDeleted"),
		ExternalUserID: "user-1",
	})
	s.NoError(err)

	_, err = s.store.Get(context.Background(), "user-1")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *ServiceSuite) TestWebhookWithoutUserIsAnError() {
	err := s.service.HandleWebhook(context.Background(), WebhookPayload{
		Type: verification.EventApplicantReviewed,
	})
	s.Error(err)
}

// failingStore wraps the memory store and fails writes on demand.
type failingStore struct {
	inner      *store.InMemoryStore
	failWrites bool
}

func (f *failingStore) Get(ctx context.Context, externalUserID string) (*verification.Record, error) {
	return f.inner.Get(ctx, externalUserID)
}

func (f *failingStore) Upsert(ctx context.Context, record verification.Record) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.inner.Upsert(ctx, record)
}
