package payments

import (
	"context"
	"net/http"
)

// Stripe is registered so tenant settings can name it, but checkout is not
// wired yet; both operations report ErrNotImplemented, which the routes
// layer maps to 501.
// TODO: implement via Stripe Checkout Sessions once a tenant needs card
// payments outside Paystack/Flutterwave coverage.
type Stripe struct {
	client *http.Client
}

func NewStripe(client *http.Client) *Stripe {
	return &Stripe{client: client}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) IsConfigured(creds Credentials) bool { return !creds.IsZero() }

func (s *Stripe) Initialize(ctx context.Context, req InitializeRequest, creds Credentials) (*InitializeResult, error) {
	return nil, ErrNotImplemented
}

func (s *Stripe) Verify(ctx context.Context, reference string, creds Credentials) (*VerifyResult, error) {
	return nil, ErrNotImplemented
}
