package payments

import (
	"context"
)

// Manual covers cash and POS payments recorded at the front desk. There is
// no external provider: payments are written as completed directly by the
// ledger route, so online initialize/verify have no meaning here.
type Manual struct{}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) Name() string { return "manual" }

func (m *Manual) IsConfigured(creds Credentials) bool { return true }

func (m *Manual) Initialize(ctx context.Context, req InitializeRequest, creds Credentials) (*InitializeResult, error) {
	return nil, ErrNotImplemented
}

func (m *Manual) Verify(ctx context.Context, reference string, creds Credentials) (*VerifyResult, error) {
	return nil, ErrNotImplemented
}
