// Package payments wraps the external payment providers behind one
// interface. Amounts cross this boundary in minor currency units
// (kobo/cents); each client converts to its provider's convention, so
// callers never care that Paystack bills in kobo while Flutterwave bills in
// naira.
package payments

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrUnsupportedGateway means the gateway name is not in the registry.
	ErrUnsupportedGateway = errors.New("unsupported payment gateway")
	// ErrNotConfigured means neither tenant nor process-wide credentials
	// exist for the gateway.
	ErrNotConfigured = errors.New("payment gateway not configured")
	// ErrNotImplemented marks gateways that are registered but cannot
	// initialize or verify online transactions.
	ErrNotImplemented = errors.New("payment gateway operation not implemented")
)

// Credentials is one key pair. Resolution order is tenant settings first,
// then process-wide defaults; an empty secret key means not configured.
type Credentials struct {
	PublicKey string
	SecretKey string
}

func (c Credentials) IsZero() bool { return c.SecretKey == "" }

// VerifyStatus is the normalized transaction outcome. Timeouts surface as
// Pending, never Failed: a transaction we could not confirm may still have
// succeeded.
type VerifyStatus string

const (
	VerifySuccess VerifyStatus = "success"
	VerifyFailed  VerifyStatus = "failed"
	VerifyPending VerifyStatus = "pending"
)

type InitializeRequest struct {
	AmountMinor int64
	Currency    string
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]interface{}
}

type InitializeResult struct {
	AuthorizationURL string
	Reference        string
}

type VerifyResult struct {
	Status               VerifyStatus
	AmountMinor          int64
	GatewayTransactionID string
	PaidAt               time.Time
}

// Gateway is the capability set one provider implements.
type Gateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest, creds Credentials) (*InitializeResult, error)
	Verify(ctx context.Context, reference string, creds Credentials) (*VerifyResult, error)
	IsConfigured(creds Credentials) bool
}

// Registry holds the known gateways and the process-wide default
// credentials, both injected at construction.
type Registry struct {
	gateways map[string]Gateway
	defaults map[string]Credentials
}

func NewRegistry(client *http.Client, defaults map[string]Credentials) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if defaults == nil {
		defaults = map[string]Credentials{}
	}

	r := &Registry{gateways: map[string]Gateway{}, defaults: defaults}
	r.Register(NewPaystack(client))
	r.Register(NewFlutterwave(client))
	r.Register(NewStripe(client))
	r.Register(NewManual())
	return r
}

func (r *Registry) Register(gw Gateway) {
	r.gateways[gw.Name()] = gw
}

// Get returns the gateway for a name; unknown names never fall through
// silently.
func (r *Registry) Get(name string) (Gateway, error) {
	gw, ok := r.gateways[name]
	if !ok {
		return nil, ErrUnsupportedGateway
	}
	return gw, nil
}

// ResolveCredentials picks tenant credentials when present, else the
// process-wide defaults for the gateway.
func (r *Registry) ResolveCredentials(name string, tenantPublic, tenantSecret string) (Credentials, error) {
	if tenantSecret != "" {
		return Credentials{PublicKey: tenantPublic, SecretKey: tenantSecret}, nil
	}
	if creds, ok := r.defaults[name]; ok && !creds.IsZero() {
		return creds, nil
	}
	return Credentials{}, ErrNotConfigured
}

// IsTimeout reports whether a gateway call failed before the provider
// answered. Callers must treat this as pending, not failed.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
