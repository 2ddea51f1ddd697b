package verification

// EventType identifies an asynchronous provider webhook event.
type EventType string

const (
	EventApplicantCreated       EventType = "applicantCreated"
	EventApplicantPending       EventType = "applicantPending"
	EventApplicantOnHold        EventType = "applicantOnHold"
	EventApplicantActionPending EventType = "applicantActionPending"
	EventApplicantReviewed      EventType = "applicantReviewed"
)

// resubmittableLabels is the curated allow-list of reject reasons the user can
// fix by submitting new documents. A RED review carrying only these labels
// maps to needs_resubmission; any label outside the list is a terminal
// rejection (forgery, spam, fraud patterns) and pins the rejected status.
var resubmittableLabels = map[string]bool{
	"DOCUMENT_PAGE_MISSING": true,
	"INCOMPLETE_DOCUMENT":   true,
	"UNSATISFACTORY_PHOTOS": true,
	"DOCUMENT_DAMAGED":      true,
	"SCREENSHOTS":           true,
	"NOT_DOCUMENT":          true,
	"SELFIE_MISMATCH":       true,
	"DOCUMENT_DEPRIVED":     true,
	"BAD_SELFIE":            true,
	"ID_INVALID":            true,
}

// Update is the webhook interpreter's output: a status plus the review
// snapshot that produced it.
type Update struct {
	Result Result
	Review ReviewState
}

// Interpret maps a provider push event into the normalized vocabulary. It is
// the second entry point into the same state machine as Reconcile: lifecycle
// events are translated into ReviewState and fed through Reconcile so the
// pull and push paths cannot drift; only a completed RED review needs the
// allow-list, which the polling path has no equivalent for.
//
// Returns nil for event types that carry no status information.
func Interpret(eventType EventType, answer ReviewAnswer, rejectLabels []string) *Update {
	switch eventType {
	case EventApplicantCreated:
		review := ReviewState{Status: ReviewStatusInit, Answer: AnswerUnknown}
		return &Update{Result: Reconcile(review, nil), Review: review}

	case EventApplicantPending, EventApplicantActionPending:
		review := ReviewState{Status: ReviewStatusPending, Answer: AnswerUnknown}
		return &Update{Result: Reconcile(review, nil), Review: review}

	case EventApplicantOnHold:
		review := ReviewState{Status: ReviewStatusOnHold, Answer: AnswerUnknown}
		return &Update{Result: Reconcile(review, nil), Review: review}

	case EventApplicantReviewed:
		review := ReviewState{
			Status:       ReviewStatusCompleted,
			Answer:       answer,
			RejectLabels: dedupe(rejectLabels),
		}
		return &Update{Result: interpretReviewed(review), Review: review}

	default:
		return nil
	}
}

func interpretReviewed(review ReviewState) Result {
	switch review.Answer {
	case AnswerGreen:
		// The push path has no step data; a completed GREEN review is the
		// provider's final word, equivalent to all steps green on the poll path.
		return Result{Status: StatusVerified, HasAnySubmittedSteps: true, AllStepsGreen: true}
	case AnswerRed:
		status := StatusNeedsResubmission
		for _, label := range review.RejectLabels {
			if !resubmittableLabels[label] {
				status = StatusRejected
				break
			}
		}
		return Result{Status: status, HasAnySubmittedSteps: true, HasRejectedSteps: true}
	default:
		// Completed without a verdict: treat as still pending rather than
		// guessing an outcome.
		return Result{Status: StatusPending, HasAnySubmittedSteps: true}
	}
}

func dedupe(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
