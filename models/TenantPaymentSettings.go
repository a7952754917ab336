package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TenantPaymentSettings carries a property's gateway configuration. Secret
// keys are tenant-scoped; credential resolution never falls back to another
// tenant's keys.
type TenantPaymentSettings struct {
	gorm.Model
	TenantID        uint           `json:"tenantID" gorm:"uniqueIndex;not null"`
	DefaultGateway  string         `json:"defaultGateway" gorm:"size:24;default:manual"`
	Currency        string         `json:"currency" gorm:"size:8;default:NGN"`
	AllowedGateways datatypes.JSON `json:"allowedGateways"`

	PaystackPublicKey    string `json:"paystackPublicKey" gorm:"size:128"`
	PaystackSecretKey    string `json:"-" gorm:"size:128"`
	FlutterwavePublicKey string `json:"flutterwavePublicKey" gorm:"size:128"`
	FlutterwaveSecretKey string `json:"-" gorm:"size:128"`
	StripePublicKey      string `json:"stripePublicKey" gorm:"size:128"`
	StripeSecretKey      string `json:"-" gorm:"size:128"`
}

// CredentialsFor returns the public/secret key pair configured for the given
// gateway, or empty strings when the tenant has none.
func (s *TenantPaymentSettings) CredentialsFor(gateway string) (public, secret string) {
	switch gateway {
	case GatewayPaystack:
		return s.PaystackPublicKey, s.PaystackSecretKey
	case GatewayFlutterwave:
		return s.FlutterwavePublicKey, s.FlutterwaveSecretKey
	case GatewayStripe:
		return s.StripePublicKey, s.StripeSecretKey
	}
	return "", ""
}
