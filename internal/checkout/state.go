// Package checkout drives a payment attempt from method selection through
// gateway submission to a terminal outcome, and tracks submitted payments
// until the gateway reports a terminal status.
package checkout

import "github.com/bookline/payflow/internal/domain"

// Step names the phases of one submission attempt.
type Step string

const (
	StepSelectingMethod   Step = "selecting_method"
	StepCollectingBilling Step = "collecting_billing"
	StepCreatingIntent    Step = "creating_intent"
	StepSubmitting        Step = "submitting"
	StepConfirming        Step = "confirming"
	StepSucceeded         Step = "succeeded"
	StepFailed            Step = "failed"
	StepCancelled         Step = "cancelled"
)

// State is the tagged union of submission states. Each variant carries only
// the data valid for that state, so impossible field combinations cannot be
// represented.
type State interface {
	Step() Step
}

// SelectingMethod waits for the customer to pick a saved method or supply a
// new pre-tokenized one.
type SelectingMethod struct {
	Methods []domain.PaymentMethod
}

func (*SelectingMethod) Step() Step { return StepSelectingMethod }

// CollectingBilling waits for a complete billing address. FieldErrors holds
// the messages from the last rejected entry so they stay visible.
type CollectingBilling struct {
	Method      domain.PaymentMethod
	FieldErrors map[string]string
}

func (*CollectingBilling) Step() Step { return StepCollectingBilling }

// CreatingIntent is ready to ask the gateway for a payment intent.
type CreatingIntent struct {
	Method  domain.PaymentMethod
	Billing *domain.BillingAddress
}

func (*CreatingIntent) Step() Step { return StepCreatingIntent }

// Submitting holds the intent being charged.
type Submitting struct {
	Intent domain.PaymentIntent
}

func (*Submitting) Step() Step { return StepSubmitting }

// Confirming tracks a submitted payment until the gateway reports a
// terminal status.
type Confirming struct {
	PaymentID string
}

func (*Confirming) Step() Step { return StepConfirming }

type Succeeded struct {
	Record domain.PaymentRecord
}

func (*Succeeded) Step() Step { return StepSucceeded }

type Failed struct {
	Failure PaymentFailure
}

func (*Failed) Step() Step { return StepFailed }

type Cancelled struct{}

func (*Cancelled) Step() Step { return StepCancelled }

func isTerminalState(s State) bool {
	switch s.(type) {
	case *Succeeded, *Failed, *Cancelled:
		return true
	default:
		return false
	}
}
