package payments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// FlowState names the stations of the payment sub-flow.
type FlowState string

const (
	StateIdle           FlowState = "idle"
	StateTokenizing     FlowState = "tokenizing"
	StateChargeAttempt1 FlowState = "charge_attempt_1"
	StateStepUpAuth     FlowState = "step_up_auth"
	StateChargeAttempt2 FlowState = "charge_attempt_2"
	StateSucceeded      FlowState = "succeeded"
	StateFailed         FlowState = "failed"
)

// Flow owns one payment attempt end to end. It is created per checkout and
// discarded afterwards; providers are injected so tests can substitute fakes.
type Flow struct {
	Tokenizer Tokenizer
	Charger   Charger
	StepUp    StepUpAuthenticator

	state FlowState
}

// NewFlow builds a flow around the given providers. Tokenizer and StepUp may
// be nil: without a tokenizer the request must already carry a token, and
// without a step-up authenticator a NeedsStepUp outcome is returned to the
// caller instead of being retried here.
func NewFlow(tokenizer Tokenizer, charger Charger, stepUp StepUpAuthenticator) *Flow {
	return &Flow{Tokenizer: tokenizer, Charger: charger, StepUp: stepUp, state: StateIdle}
}

// State reports the station the flow last reached.
func (f *Flow) State() FlowState {
	return f.state
}

// Run drives the state machine:
//
//	Idle -> Tokenizing -> ChargeAttempt1 -> Succeeded
//	                                     -> NeedsStepUp -> StepUpAuth -> ChargeAttempt2 -> Succeeded | Failed
//	                                     -> Failed
//
// Only the NeedsStepUp outcome of the first attempt triggers the second; any
// other failure terminates the flow with no retry.
func (f *Flow) Run(ctx context.Context, checkout CheckoutParams, req ChargeRequest) (ChargeResult, error) {
	if f.Charger == nil {
		return ChargeResult{}, fmt.Errorf("payment flow requires a charger")
	}
	logger := log.Ctx(ctx)

	if req.TokenID == "" {
		f.transition(StateTokenizing)
		if f.Tokenizer == nil {
			f.transition(StateFailed)
			return ChargeResult{}, ErrNoTokenizer
		}
		token, err := f.Tokenizer.Tokenize(ctx, checkout)
		if err != nil {
			f.transition(StateFailed)
			return ChargeResult{Status: ChargeFailed, Message: err.Error()}, nil
		}
		req.TokenID = token
	}

	f.transition(StateChargeAttempt1)
	result, err := f.Charger.Charge(ctx, req)
	if err != nil {
		f.transition(StateFailed)
		return ChargeResult{}, err
	}

	if result.Status == ChargeNeedsStepUp && len(req.StepUpAssertion) == 0 && f.StepUp != nil {
		f.transition(StateStepUpAuth)
		logger.Info().Str("token_id", req.TokenID).Msg("Charge requires 3DS step-up, authenticating")

		assertion, err := f.StepUp.Authenticate(ctx, req.TokenID)
		if err != nil {
			f.transition(StateFailed)
			return ChargeResult{Status: ChargeFailed, Message: err.Error()}, nil
		}
		req.StepUpAssertion = assertion

		f.transition(StateChargeAttempt2)
		result, err = f.Charger.Charge(ctx, req)
		if err != nil {
			f.transition(StateFailed)
			return ChargeResult{}, err
		}
		if result.Status == ChargeNeedsStepUp {
			// The provider asked for authentication we already supplied.
			f.transition(StateFailed)
			return ChargeResult{Status: ChargeFailed, Message: "El pago no pudo autenticarse."}, nil
		}
	}

	switch result.Status {
	case ChargeSucceeded:
		f.transition(StateSucceeded)
	case ChargeNeedsStepUp:
		// No authenticator here: surface the tag so the caller can run the
		// browser-side step-up and resubmit.
	default:
		f.transition(StateFailed)
	}
	return result, nil
}

func (f *Flow) transition(next FlowState) {
	f.state = next
}
