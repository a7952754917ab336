package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
)

const settingsCacheTTL = 10 * time.Minute

// SettingsService reads tenant payment settings through a redis cache.
// Settings are read-mostly; a write invalidates the cache before the next
// read so a rotated secret key is never served stale. A nil redis client
// disables caching.
type SettingsService struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewSettingsService(db *gorm.DB, cache *redis.Client) *SettingsService {
	return &SettingsService{db: db, cache: cache}
}

func settingsCacheKey(tenantID uint) string {
	return fmt.Sprintf("tenant:%d:payment-settings", tenantID)
}

// cachedSettings mirrors the model with the secret keys included; the model
// hides them from API JSON, but the cache must round-trip them.
type cachedSettings struct {
	models.TenantPaymentSettings
	PaystackSecretKey    string `json:"paystackSecretKey"`
	FlutterwaveSecretKey string `json:"flutterwaveSecretKey"`
	StripeSecretKey      string `json:"stripeSecretKey"`
}

func toCached(settings *models.TenantPaymentSettings) *cachedSettings {
	return &cachedSettings{
		TenantPaymentSettings: *settings,
		PaystackSecretKey:     settings.PaystackSecretKey,
		FlutterwaveSecretKey:  settings.FlutterwaveSecretKey,
		StripeSecretKey:       settings.StripeSecretKey,
	}
}

func (c *cachedSettings) toModel() *models.TenantPaymentSettings {
	settings := c.TenantPaymentSettings
	settings.PaystackSecretKey = c.PaystackSecretKey
	settings.FlutterwaveSecretKey = c.FlutterwaveSecretKey
	settings.StripeSecretKey = c.StripeSecretKey
	return &settings
}

// GetPaymentSettings returns the tenant's settings, or defaults (manual
// gateway) when none have been saved yet.
func (s *SettingsService) GetPaymentSettings(ctx context.Context, tenantID uint) (*models.TenantPaymentSettings, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, settingsCacheKey(tenantID)).Result()
		if err == nil {
			var entry cachedSettings
			if jsonErr := json.Unmarshal([]byte(cached), &entry); jsonErr == nil {
				return entry.toModel(), nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("settings: cache read failed for tenant %d: %v", tenantID, err)
		}
	}

	var settings models.TenantPaymentSettings
	err := s.db.Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.TenantPaymentSettings{
			TenantID:       tenantID,
			DefaultGateway: models.GatewayManual,
			Currency:       "NGN",
		}
	} else if err != nil {
		return nil, Internal(err)
	}

	s.fillCache(ctx, tenantID, &settings)
	return &settings, nil
}

// UpdatePaymentSettings saves the settings and drops the cache entry. The
// invalidation happens inside the write path, before any subsequent read
// can observe the old keys.
func (s *SettingsService) UpdatePaymentSettings(ctx context.Context, settings *models.TenantPaymentSettings) error {
	if settings.TenantID == 0 {
		return Validationf("tenant id is required")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.TenantPaymentSettings
		findErr := tx.Where("tenant_id = ?", settings.TenantID).First(&existing).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return tx.Create(settings).Error
		}
		if findErr != nil {
			return findErr
		}
		settings.ID = existing.ID
		return tx.Save(settings).Error
	})
	if err != nil {
		return Internal(err)
	}

	if s.cache != nil {
		if delErr := s.cache.Del(ctx, settingsCacheKey(settings.TenantID)).Err(); delErr != nil {
			log.Printf("settings: cache invalidation failed for tenant %d: %v", settings.TenantID, delErr)
		}
	}
	return nil
}

func (s *SettingsService) fillCache(ctx context.Context, tenantID uint, settings *models.TenantPaymentSettings) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(toCached(settings))
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, settingsCacheKey(tenantID), payload, settingsCacheTTL).Err(); err != nil {
		log.Printf("settings: cache write failed for tenant %d: %v", tenantID, err)
	}
}
