package verification

import "time"

// Status is the normalized verification vocabulary. It abstracts over
// provider-specific review states so the app never branches on raw
// provider values.
type Status string

const (
	// StatusNotVerified: no submission and no review signal yet.
	StatusNotVerified Status = "not_verified"
	// StatusPending: documents submitted or review in flight.
	StatusPending Status = "pending"
	// StatusNeedsResubmission: at least one rejected document, a RED review,
	// or an on-hold review; the user can retry.
	StatusNeedsResubmission Status = "needs_resubmission"
	// StatusVerified: every required step GREEN and the overall review GREEN.
	StatusVerified Status = "verified"
	// StatusRejected: terminal rejection with a non-retryable reject label.
	// Only the webhook path can pin this; polling never downgrades it.
	StatusRejected Status = "rejected"
)

// ReviewStatus is the provider's overall review lifecycle state.
type ReviewStatus string

const (
	ReviewStatusInit      ReviewStatus = "init"
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusQueued    ReviewStatus = "queued"
	ReviewStatusOnHold    ReviewStatus = "onHold"
	ReviewStatusCompleted ReviewStatus = "completed"
	ReviewStatusUnknown   ReviewStatus = "unknown"
)

// ReviewAnswer is the provider's verdict, meaningful only when the review
// status is completed.
type ReviewAnswer string

const (
	AnswerGreen   ReviewAnswer = "GREEN"
	AnswerRed     ReviewAnswer = "RED"
	AnswerUnknown ReviewAnswer = "unknown"
)

// ReviewState is a snapshot of the provider's overall verdict. Absent
// provider fields normalize to the unknown values, never to empty strings.
type ReviewState struct {
	Status       ReviewStatus
	Answer       ReviewAnswer
	RejectLabels []string
}

// NormalizeReviewStatus maps a raw provider string onto the enum, folding
// anything unrecognized into unknown.
func NormalizeReviewStatus(raw string) ReviewStatus {
	switch ReviewStatus(raw) {
	case ReviewStatusInit, ReviewStatusPending, ReviewStatusQueued,
		ReviewStatusOnHold, ReviewStatusCompleted:
		return ReviewStatus(raw)
	default:
		return ReviewStatusUnknown
	}
}

// NormalizeReviewAnswer maps a raw provider string onto the enum.
func NormalizeReviewAnswer(raw string) ReviewAnswer {
	switch ReviewAnswer(raw) {
	case AnswerGreen, AnswerRed:
		return ReviewAnswer(raw)
	default:
		return AnswerUnknown
	}
}

// StepStatus is the state of one required document step. A nil entry in a
// step map means the step was never started; a non-nil entry means it was
// submitted, whatever its answer.
type StepStatus struct {
	Answer ReviewAnswer
}

// Result is the reconciled output for one external user.
type Result struct {
	Status               Status
	HasAnySubmittedSteps bool
	HasRejectedSteps     bool
	AllStepsGreen        bool
}

// Record is the persisted row, one per external user id, overwritten on every
// recomputation. ObservedAt orders competing writes from the poll and webhook
// paths: the store only applies a write at least as new as the current row.
type Record struct {
	ExternalUserID string
	ApplicantID    string
	Result         Result
	Review         ReviewState
	ObservedAt     time.Time
	UpdatedAt      time.Time
}

// NewApplicant carries the identity fields sent to the provider at creation.
type NewApplicant struct {
	ExternalUserID string
	LevelName      string
	Email          string
	Phone          string
	FirstName      string
	LastName       string
}
