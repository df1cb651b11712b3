package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/config"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
	"github.com/smartcanteen/canteen-backend/pkg/razorpay"
)

// Gateway is the provider surface the payment flow needs. The concrete
// implementation is a per-merchant Razorpay client.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.ProviderOrder, error)
	VerifyPaymentSignature(sig razorpay.PaymentSignature) error
}

// MerchantClients resolves the gateway client a canteen collects with.
type MerchantClients interface {
	ForCanteen(ctx context.Context, canteenID uuid.UUID) (Gateway, error)
}

type merchantAccountLoader interface {
	FindActiveByCanteen(ctx context.Context, canteenID uuid.UUID) (*models.MerchantAccount, error)
}

type cachedGateway struct {
	gateway Gateway
	expires time.Time
}

// MerchantResolver builds and caches one gateway client per canteen key
// pair. When a canteen has no configured account the shared sandbox pair is
// used, but only when the explicit fallback flag is on.
type MerchantResolver struct {
	repo   merchantAccountLoader
	cfg    config.PaymentsConfig
	logger *logger.Logger

	mu    sync.RWMutex
	cache map[uuid.UUID]cachedGateway
	now   func() time.Time
}

// NewMerchantResolver constructs the resolver.
func NewMerchantResolver(repo merchantAccountLoader, cfg config.PaymentsConfig, logg *logger.Logger) (*MerchantResolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("merchant account repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &MerchantResolver{
		repo:   repo,
		cfg:    cfg,
		logger: logg,
		cache:  map[uuid.UUID]cachedGateway{},
		now:    time.Now,
	}, nil
}

// ForCanteen returns the canteen's gateway client, building and caching it
// on first use.
func (m *MerchantResolver) ForCanteen(ctx context.Context, canteenID uuid.UUID) (Gateway, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}

	if gateway := m.cached(canteenID); gateway != nil {
		return gateway, nil
	}

	account, err := m.repo.FindActiveByCanteen(ctx, canteenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m.sandboxFallback(ctx, canteenID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeMerchantConfig, err, "load merchant account")
	}

	client, err := razorpay.NewClient(ctx, account.ProviderKeyID, account.ProviderKeySecret, m.cfg.Environment(), m.logger)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeMerchantConfig, err, "build merchant gateway client")
	}

	m.store(canteenID, client)
	return client, nil
}

func (m *MerchantResolver) sandboxFallback(ctx context.Context, canteenID uuid.UUID) (Gateway, error) {
	if !m.cfg.AllowSandboxFallback || m.cfg.SandboxKeyID == "" || m.cfg.SandboxKeySecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMerchantConfig, "canteen has no merchant account configured")
	}

	ctx = m.logger.WithCanteenID(ctx, canteenID.String())
	m.logger.Warn(ctx, "merchant account missing, using sandbox key pair")

	client, err := razorpay.NewClient(ctx, m.cfg.SandboxKeyID, m.cfg.SandboxKeySecret, "test", m.logger)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeMerchantConfig, err, "build sandbox gateway client")
	}

	m.store(canteenID, client)
	return client, nil
}

func (m *MerchantResolver) cached(canteenID uuid.UUID) Gateway {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.cache[canteenID]
	if !ok || m.now().After(entry.expires) {
		return nil
	}
	return entry.gateway
}

func (m *MerchantResolver) store(canteenID uuid.UUID, gateway Gateway) {
	ttl := m.cfg.MerchantConfigCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	m.mu.Lock()
	m.cache[canteenID] = cachedGateway{gateway: gateway, expires: m.now().Add(ttl)}
	m.mu.Unlock()
}

// Invalidate drops the cached client after a key rotation.
func (m *MerchantResolver) Invalidate(canteenID uuid.UUID) {
	m.mu.Lock()
	delete(m.cache, canteenID)
	m.mu.Unlock()
}
