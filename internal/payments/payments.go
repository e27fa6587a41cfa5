// Package payments runs the card-payment flow for online-enabled complexes:
// tokenize, charge, and a single conditional 3-D Secure step-up retry.
package payments

import (
	"context"
	"encoding/json"
	"errors"
)

// ChargeStatus tags the outcome of a charge attempt. The step-up branch is
// driven by this tag, never by matching on message strings.
type ChargeStatus string

const (
	ChargeSucceeded   ChargeStatus = "succeeded"
	ChargeNeedsStepUp ChargeStatus = "needs_step_up"
	ChargeFailed      ChargeStatus = "failed"
)

// ChargeResult is the tagged result of one charge attempt.
type ChargeResult struct {
	Status      ChargeStatus
	ProviderRef string // provider charge ID when succeeded
	Message     string // user-facing message when failed
}

// ChargeRequest is the provider-facing charge payload.
type ChargeRequest struct {
	TokenID         string
	AmountCents     int64
	Currency        string
	Description     string
	Email           string
	DeviceID        string
	StepUpAssertion json.RawMessage // 3-D Secure authentication, second attempt only
}

// CheckoutParams configure the checkout widget that tokenizes a card.
type CheckoutParams struct {
	AmountCents int64
	Currency    string
	Title       string
}

// Tokenizer turns card input into a one-time token. The production
// implementation lives in the buyer's browser; server-side callers inject a
// token obtained there.
type Tokenizer interface {
	Tokenize(ctx context.Context, params CheckoutParams) (string, error)
}

// Charger submits a charge to the payment provider.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// StepUpAuthenticator obtains a 3-D Secure assertion for a card token.
type StepUpAuthenticator interface {
	Authenticate(ctx context.Context, tokenID string) (json.RawMessage, error)
}

// ErrNoTokenizer is returned when a flow without a token has no way to get one.
var ErrNoTokenizer = errors.New("no card token and no tokenizer configured")

// StaticToken is a Tokenizer for requests that already carry a token minted by
// the browser checkout widget.
type StaticToken string

func (t StaticToken) Tokenize(context.Context, CheckoutParams) (string, error) {
	return string(t), nil
}
