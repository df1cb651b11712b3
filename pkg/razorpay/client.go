package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	rzpsdk "github.com/razorpay/razorpay-go"

	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errKeyPairRequired = errors.New("razorpay key id and secret are required")
	errInvalidEnv      = fmt.Errorf("razorpay environment must be %q or %q", testEnv, liveEnv)
	errLoggerRequired  = errors.New("razorpay logger is required")
)

// orderAPI is the slice of the SDK the client depends on; tests swap it out.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client exposes Razorpay primitives with centralized logging, receipt
// generation and error mapping. One client is built per merchant key pair
// since each canteen collects payments under its own account.
type Client struct {
	orders      orderAPI
	keyID       string
	keySecret   string
	environment string
	logger      *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, keyID, keySecret, environment string, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(environment)
	if err != nil {
		return nil, err
	}

	keyID = strings.TrimSpace(keyID)
	keySecret = strings.TrimSpace(keySecret)
	if keyID == "" || keySecret == "" {
		return nil, errKeyPairRequired
	}

	sdk := rzpsdk.NewClient(keyID, keySecret)

	c := &Client{
		orders:      sdk.Order,
		keyID:       keyID,
		keySecret:   keySecret,
		environment: env,
		logger:      logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key id the checkout widget is configured with.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// Environment reports the normalized provider environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// NewReceipt returns a unique receipt reference for provider orders.
func (c *Client) NewReceipt(prefix string) string {
	ref := strings.TrimSpace(prefix)
	if ref == "" {
		ref = "rcpt"
	}
	return fmt.Sprintf("%s-%s", ref, uuid.NewString())
}

// OrderCreateParams carries everything needed to open a provider order.
// AmountPaise is the exact charge in the smallest currency unit.
type OrderCreateParams struct {
	AmountPaise int
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// ProviderOrder is the subset of the provider response the platform uses.
type ProviderOrder struct {
	ID          string
	AmountPaise int
	Currency    string
	Receipt     string
}

// CreateOrder opens a provider-side order for the exact amount. The widget
// on the client is launched against the returned order id.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*ProviderOrder, error) {
	if c == nil || c.orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "razorpay client not initialized")
	}
	if params.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive paise")
	}
	currency := strings.TrimSpace(strings.ToUpper(params.Currency))
	if currency == "" {
		currency = "INR"
	}
	receipt := strings.TrimSpace(params.Receipt)
	if receipt == "" {
		receipt = c.NewReceipt("")
	}

	data := map[string]interface{}{
		"amount":   params.AmountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(params.Notes) > 0 {
		notes := make(map[string]interface{}, len(params.Notes))
		for k, v := range params.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"amount":   params.AmountPaise,
		"currency": currency,
		"receipt":  receipt,
	})

	body, err := c.orders.Create(data, nil)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, c.mapProviderError(err, "create order")
	}

	order := parseOrder(body)
	if order.ID == "" {
		err := errors.New("provider order response missing id")
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentIntentCreation, err, "create order")
	}
	if order.Receipt == "" {
		order.Receipt = receipt
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"provider_order_id": order.ID,
		"amount":            order.AmountPaise,
	})
	return order, nil
}

func parseOrder(body map[string]interface{}) *ProviderOrder {
	order := &ProviderOrder{}
	if body == nil {
		return order
	}
	if id, ok := body["id"].(string); ok {
		order.ID = id
	}
	switch amount := body["amount"].(type) {
	case float64:
		order.AmountPaise = int(amount)
	case int:
		order.AmountPaise = amount
	}
	if currency, ok := body["currency"].(string); ok {
		order.Currency = currency
	}
	if receipt, ok := body["receipt"].(string); ok {
		order.Receipt = receipt
	}
	return order
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "signature", "token", "email", "phone", "contact"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapProviderError(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	code := pkgerrors.CodePaymentIntentCreation
	switch {
	case strings.Contains(msg, "authentication") || strings.Contains(msg, "unauthorized"):
		code = pkgerrors.CodeUnauthorized
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		code = pkgerrors.CodeGatewayUnavailable
	}
	return pkgerrors.Wrap(code, err, fmt.Sprintf("razorpay %s failed", op))
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}
