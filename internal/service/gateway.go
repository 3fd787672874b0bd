package service

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// PaymentGateway captures a pre-authorized card payment. Capture must succeed
// before boarding is recorded for card-on-file rides.
type PaymentGateway interface {
	Capture(ctx context.Context, paymentRef string) error
}

// EligibilityChecker decides whether a driver may take new rides at all
// (documents in order, account not suspended).
type EligibilityChecker interface {
	Eligible(ctx context.Context, driverID string) (bool, error)
}

// AllowAllEligibility approves every driver. Stand-in until the compliance
// service is wired.
type AllowAllEligibility struct{}

func (AllowAllEligibility) Eligible(ctx context.Context, driverID string) (bool, error) {
	return true, nil
}

// HTTPPaymentGateway captures payments through the processor's REST API.
type HTTPPaymentGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPaymentGateway creates a new HTTPPaymentGateway.
func NewHTTPPaymentGateway(baseURL string, timeout time.Duration) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Capture posts a capture order for the given payment reference. Any
// non-2xx answer counts as a refusal.
func (g *HTTPPaymentGateway) Capture(ctx context.Context, paymentRef string) error {
	url := fmt.Sprintf("%s/v2/payments/%s/capture", g.baseURL, paymentRef)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("capture of %s refused with status %d", paymentRef, resp.StatusCode)
	}
	return nil
}
