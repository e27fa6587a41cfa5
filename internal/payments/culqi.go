package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultCulqiBaseURL = "https://api.culqi.com/v2"
	defaultCulqiTimeout = 15 * time.Second

	// Culqi flags a charge that must go through 3-D Secure with this action
	// code instead of completing it.
	culqiActionReview = "REVIEW"
)

const genericChargeMessage = "No se pudo procesar el pago."

// CulqiClient charges cards through the Culqi REST API.
type CulqiClient struct {
	secretKey string
	baseURL   string
	httpc     *http.Client
}

// NewCulqiClient builds a charger authenticated with the merchant secret key.
func NewCulqiClient(secretKey string) *CulqiClient {
	return &CulqiClient{
		secretKey: secretKey,
		baseURL:   defaultCulqiBaseURL,
		httpc:     &http.Client{Timeout: defaultCulqiTimeout},
	}
}

// WithBaseURL points the client at a different endpoint. Used by tests.
func (c *CulqiClient) WithBaseURL(baseURL string) *CulqiClient {
	c.baseURL = baseURL
	return c
}

type culqiChargeBody struct {
	Amount            int64             `json:"amount"`
	CurrencyCode      string            `json:"currency_code"`
	Email             string            `json:"email"`
	SourceID          string            `json:"source_id"`
	Capture           bool              `json:"capture"`
	Description       string            `json:"description,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Authentication3DS json.RawMessage   `json:"authentication_3DS,omitempty"`
}

type culqiChargeResponse struct {
	Object          string `json:"object"`
	ID              string `json:"id"`
	ActionCode      string `json:"action_code"`
	UserMessage     string `json:"user_message"`
	MerchantMessage string `json:"merchant_message"`
}

// Charge submits one charge attempt. Provider rejections come back as a
// ChargeFailed result carrying Culqi's user-facing message; transport and
// server errors are returned as errors.
func (c *CulqiClient) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	body := culqiChargeBody{
		Amount:            req.AmountCents,
		CurrencyCode:      req.Currency,
		Email:             req.Email,
		SourceID:          req.TokenID,
		Capture:           true,
		Description:       req.Description,
		Authentication3DS: req.StepUpAssertion,
	}
	if req.DeviceID != "" {
		body.Metadata = map[string]string{"device_id": req.DeviceID}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return ChargeResult{}, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("charge request: %w", err)
	}
	defer resp.Body.Close()

	var decoded culqiChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ChargeResult{}, fmt.Errorf("decode charge response (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if decoded.ActionCode == culqiActionReview {
			return ChargeResult{Status: ChargeNeedsStepUp}, nil
		}
		return ChargeResult{Status: ChargeSucceeded, ProviderRef: decoded.ID}, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		message := decoded.UserMessage
		if message == "" {
			message = genericChargeMessage
		}
		log.Ctx(ctx).Warn().
			Int("status", resp.StatusCode).
			Str("merchant_message", decoded.MerchantMessage).
			Msg("Culqi rejected charge")
		return ChargeResult{Status: ChargeFailed, Message: message}, nil

	default:
		return ChargeResult{}, fmt.Errorf("charge request: unexpected status %d", resp.StatusCode)
	}
}
