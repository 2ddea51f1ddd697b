package verification

// Reconcile folds the provider's overall review and per-step document states
// into one normalized status. This is pure domain logic - no I/O, no side
// effects - and it is the single source of truth: the polling endpoint and
// the webhook interpreter both feed into it rather than re-deriving rules.
//
// Rule priority (first match wins; the order is load-bearing):
//  1. verified: every required step GREEN and overall review GREEN
//  2. needs_resubmission: any rejected step, RED review, or on-hold review
//  3. pending: review in flight or anything submitted
//  4. not_verified: default
//
// A rejection always dominates an in-progress signal, and verified requires
// the step-level and review-level signals to agree independently, so a
// provider reporting GREEN overall while a step is still RED can never land
// on verified.
func Reconcile(review ReviewState, steps map[string]*StepStatus) Result {
	var result Result

	for _, step := range steps {
		if step == nil {
			continue
		}
		result.HasAnySubmittedSteps = true
		if step.Answer == AnswerRed {
			result.HasRejectedSteps = true
		}
	}

	// An absent step is not green; an empty step map never counts as all-green.
	result.AllStepsGreen = len(steps) > 0
	for _, step := range steps {
		if step == nil || step.Answer != AnswerGreen {
			result.AllStepsGreen = false
			break
		}
	}

	switch {
	case result.AllStepsGreen && review.Answer == AnswerGreen:
		result.Status = StatusVerified
	case result.HasRejectedSteps || review.Answer == AnswerRed || review.Status == ReviewStatusOnHold:
		result.Status = StatusNeedsResubmission
	case review.Status == ReviewStatusPending || review.Status == ReviewStatusQueued ||
		result.HasAnySubmittedSteps:
		result.Status = StatusPending
	default:
		result.Status = StatusNotVerified
	}

	return result
}
