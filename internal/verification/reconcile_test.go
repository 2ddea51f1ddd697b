package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func green() *StepStatus { return &StepStatus{Answer: AnswerGreen} }
func red() *StepStatus   { return &StepStatus{Answer: AnswerRed} }

func TestReconcile(t *testing.T) {
	tests := []struct {
		name   string
		review ReviewState
		steps  map[string]*StepStatus
		want   Result
	}{
		{
			name:   "nothing started",
			review: ReviewState{Status: ReviewStatusInit, Answer: AnswerUnknown},
			steps:  map[string]*StepStatus{"idFront": nil, "idBack": nil, "selfie": nil},
			want:   Result{Status: StatusNotVerified},
		},
		{
			name:   "one step submitted review pending",
			review: ReviewState{Status: ReviewStatusPending, Answer: AnswerUnknown},
			steps:  map[string]*StepStatus{"idFront": green(), "idBack": nil, "selfie": nil},
			want:   Result{Status: StatusPending, HasAnySubmittedSteps: true},
		},
		{
			name:   "all steps green review green",
			review: ReviewState{Status: ReviewStatusCompleted, Answer: AnswerGreen},
			steps:  map[string]*StepStatus{"idFront": green(), "idBack": green(), "selfie": green()},
			want:   Result{Status: StatusVerified, HasAnySubmittedSteps: true, AllStepsGreen: true},
		},
		{
			name:   "rejected step with red review",
			review: ReviewState{Status: ReviewStatusCompleted, Answer: AnswerRed, RejectLabels: []string{"FORGERY"}},
			steps:  map[string]*StepStatus{"idFront": red()},
			want:   Result{Status: StatusNeedsResubmission, HasAnySubmittedSteps: true, HasRejectedSteps: true},
		},
		{
			name:   "on hold overrides everything submitted",
			review: ReviewState{Status: ReviewStatusOnHold, Answer: AnswerUnknown},
			steps:  map[string]*StepStatus{"idFront": nil, "idBack": nil},
			want:   Result{Status: StatusNeedsResubmission},
		},
		{
			name:   "rejected step dominates green review",
			review: ReviewState{Status: ReviewStatusCompleted, Answer: AnswerGreen},
			steps:  map[string]*StepStatus{"idFront": red(), "idBack": green()},
			want:   Result{Status: StatusNeedsResubmission, HasAnySubmittedSteps: true, HasRejectedSteps: true},
		},
		{
			name:   "green review without all steps green stays pending",
			review: ReviewState{Status: ReviewStatusQueued, Answer: AnswerGreen},
			steps:  map[string]*StepStatus{"idFront": green(), "selfie": nil},
			want:   Result{Status: StatusPending, HasAnySubmittedSteps: true},
		},
		{
			name:   "empty step map never counts as all green",
			review: ReviewState{Status: ReviewStatusCompleted, Answer: AnswerGreen},
			steps:  map[string]*StepStatus{},
			want:   Result{Status: StatusNotVerified},
		},
		{
			name:   "nil step map behaves like empty",
			review: ReviewState{Status: ReviewStatusUnknown, Answer: AnswerUnknown},
			steps:  nil,
			want:   Result{Status: StatusNotVerified},
		},
		{
			name:   "red review with no steps needs resubmission",
			review: ReviewState{Status: ReviewStatusCompleted, Answer: AnswerRed},
			steps:  map[string]*StepStatus{"idFront": nil},
			want:   Result{Status: StatusNeedsResubmission},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.review, tt.steps)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	review := ReviewState{Status: ReviewStatusCompleted, Answer: AnswerGreen}
	steps := map[string]*StepStatus{"idFront": green(), "idBack": red(), "selfie": nil}

	first := Reconcile(review, steps)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Reconcile(review, steps))
	}
}

func TestReconcileNeverVerifiedWithRejectedStep(t *testing.T) {
	// Contradictory provider data: overall GREEN while a step is RED.
	// The rejection must dominate; verified requires both signals to agree.
	review := ReviewState{Status: ReviewStatusCompleted, Answer: AnswerGreen}
	steps := map[string]*StepStatus{"selfie": red()}

	got := Reconcile(review, steps)
	assert.Equal(t, StatusNeedsResubmission, got.Status)
	assert.False(t, got.AllStepsGreen)
}
