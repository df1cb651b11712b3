package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

// PaymentSignature is the triple the checkout widget hands back on success.
type PaymentSignature struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyPaymentSignature checks that the signature was produced by the
// merchant's key secret over "order_id|payment_id". A payment is never
// marked completed without this check passing.
func (c *Client) VerifyPaymentSignature(sig PaymentSignature) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "razorpay client not initialized")
	}
	return VerifySignature(sig, c.keySecret)
}

// VerifySignature is the key-parameterized form of VerifyPaymentSignature.
func VerifySignature(sig PaymentSignature, keySecret string) error {
	orderID := strings.TrimSpace(sig.OrderID)
	paymentID := strings.TrimSpace(sig.PaymentID)
	signature := strings.TrimSpace(sig.Signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment signature fields are required")
	}

	expected := SignPayload(orderID+"|"+paymentID, keySecret)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment signature mismatch")
	}
	return nil
}

// SignPayload computes the hex HMAC-SHA256 of payload under the secret.
func SignPayload(payload, keySecret string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
