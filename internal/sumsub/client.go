package sumsub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"verigate/internal/verification"
)

var tracer = otel.Tracer("verigate/internal/sumsub")

// Client issues signed HTTP calls to the verification provider. It performs
// no retries and no deduplication: CreateApplicant called twice for the same
// external user id creates two provider-side applicants, so callers must
// check persisted state first.
type Client struct {
	baseURL string
	signer  *Signer
	http    *http.Client
}

// NewClient builds a provider client. timeout bounds each call at the
// transport level; request contexts tighten it further.
func NewClient(baseURL string, signer *Signer, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		signer:  signer,
		http:    &http.Client{Timeout: timeout},
	}
}

// applicantResponse is the subset of the provider applicant document we read.
type applicantResponse struct {
	ID     string `json:"id"`
	Review struct {
		ReviewStatus string `json:"reviewStatus"`
		ReviewResult struct {
			ReviewAnswer string   `json:"reviewAnswer"`
			RejectLabels []string `json:"rejectLabels"`
		} `json:"reviewResult"`
	} `json:"review"`
}

// stepResponse is one entry of the required-steps document. The provider
// sends an explicit null for steps never started.
type stepResponse struct {
	ReviewResult *struct {
		ReviewAnswer string `json:"reviewAnswer"`
	} `json:"reviewResult"`
}

// CreateApplicant registers a new applicant at the given level and returns
// the provider-assigned applicant id.
func (c *Client) CreateApplicant(ctx context.Context, applicant verification.NewApplicant) (string, error) {
	ctx, span := tracer.Start(ctx, "sumsub.CreateApplicant",
		trace.WithAttributes(attribute.String("external_user_id", applicant.ExternalUserID)))
	defer span.End()

	body := map[string]any{
		"externalUserId": applicant.ExternalUserID,
	}
	if applicant.Email != "" {
		body["email"] = applicant.Email
	}
	if applicant.Phone != "" {
		body["phone"] = applicant.Phone
	}
	if applicant.FirstName != "" || applicant.LastName != "" {
		body["fixedInfo"] = map[string]string{
			"firstName": applicant.FirstName,
			"lastName":  applicant.LastName,
		}
	}

	path := "/resources/applicants?levelName=" + url.QueryEscape(applicant.LevelName)
	var resp applicantResponse
	if err := c.do(ctx, "createApplicant", http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", badDataErr("createApplicant", fmt.Errorf("response missing applicant id"))
	}
	return resp.ID, nil
}

// FetchApplicantReview returns the provider's overall verdict. Absent fields
// normalize to unknown values so the reconciliation engine never sees nulls.
func (c *Client) FetchApplicantReview(ctx context.Context, applicantID string) (verification.ReviewState, error) {
	ctx, span := tracer.Start(ctx, "sumsub.FetchApplicantReview",
		trace.WithAttributes(attribute.String("applicant_id", applicantID)))
	defer span.End()

	var resp applicantResponse
	path := "/resources/applicants/" + url.PathEscape(applicantID) + "/one"
	if err := c.do(ctx, "fetchApplicantReview", http.MethodGet, path, nil, &resp); err != nil {
		return verification.ReviewState{}, err
	}

	return verification.ReviewState{
		Status:       verification.NormalizeReviewStatus(resp.Review.ReviewStatus),
		Answer:       verification.NormalizeReviewAnswer(resp.Review.ReviewResult.ReviewAnswer),
		RejectLabels: resp.Review.ReviewResult.RejectLabels,
	}, nil
}

// FetchRequiredStepsStatus returns the per-step document state. A nil map
// value means the step was never started; any non-nil value means submitted.
func (c *Client) FetchRequiredStepsStatus(ctx context.Context, applicantID string) (map[string]*verification.StepStatus, error) {
	ctx, span := tracer.Start(ctx, "sumsub.FetchRequiredStepsStatus",
		trace.WithAttributes(attribute.String("applicant_id", applicantID)))
	defer span.End()

	var resp map[string]*stepResponse
	path := "/resources/applicants/" + url.PathEscape(applicantID) + "/requiredIdDocsStatus"
	if err := c.do(ctx, "fetchRequiredStepsStatus", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	steps := make(map[string]*verification.StepStatus, len(resp))
	for name, step := range resp {
		if step == nil {
			steps[name] = nil
			continue
		}
		answer := verification.AnswerUnknown
		if step.ReviewResult != nil {
			answer = verification.NormalizeReviewAnswer(step.ReviewResult.ReviewAnswer)
		}
		steps[name] = &verification.StepStatus{Answer: answer}
	}
	return steps, nil
}

// GenerateWebSDKLink returns a provider-hosted URL embedding the capture flow
// for the given external user.
func (c *Client) GenerateWebSDKLink(ctx context.Context, externalUserID, levelName string) (string, error) {
	ctx, span := tracer.Start(ctx, "sumsub.GenerateWebSDKLink",
		trace.WithAttributes(attribute.String("external_user_id", externalUserID)))
	defer span.End()

	path := "/resources/sdkIntegrations/levels/" + url.PathEscape(levelName) +
		"/websdkLink?externalUserId=" + url.QueryEscape(externalUserID)
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, "generateWebSDKLink", http.MethodPost, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", badDataErr("generateWebSDKLink", fmt.Errorf("response missing url"))
	}
	return resp.URL, nil
}

// do signs and issues one request. The signed bytes are exactly the bytes
// transmitted; the body is marshalled once and reused for both.
func (c *Client) do(ctx context.Context, op, method, pathWithQuery string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return badDataErr(op, fmt.Errorf("marshal request: %w", err))
		}
	}

	sig, err := c.signer.Sign(method, pathWithQuery, payload)
	if err != nil {
		return err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathWithQuery, reader)
	if err != nil {
		return unavailableErr(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-App-Token", sig.AppToken)
	req.Header.Set("X-App-Access-Ts", sig.Timestamp)
	req.Header.Set("X-App-Access-Sig", sig.Value)

	resp, err := c.http.Do(req)
	if err != nil {
		return unavailableErr(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return unavailableErr(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpErr(op, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return badDataErr(op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}
