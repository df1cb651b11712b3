package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	if meta := MetadataFor(CodeCrossVendorConflict); meta.HTTPStatus != http.StatusConflict {
		t.Fatalf("cross vendor conflict should map to 409, got %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(CodeVerificationFailed); meta.Retryable {
		t.Fatal("verification failure must not be marked retryable")
	}
	if meta := MetadataFor(CodeGatewayUnavailable); !meta.Retryable {
		t.Fatal("gateway unavailability is safe to retry")
	}
	if meta := MetadataFor(Code("BOGUS")); meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes fall back to internal, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("socket closed")
	err := Wrap(CodePaymentIntentCreation, cause, "create provider order")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	if err.Code() != CodePaymentIntentCreation {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsThroughWrappedChain(t *testing.T) {
	t.Parallel()

	inner := New(CodeMerchantConfig, "no key pair for canteen")
	outer := fmt.Errorf("initiate payment: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeMerchantConfig {
		t.Fatalf("expected merchant config code through the chain, got %v", typed)
	}
	if !HasCode(outer, CodeMerchantConfig) {
		t.Fatal("HasCode should see through wrapping")
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeValidation, "quantity must be positive").WithDetails(map[string]any{"field": "quantity"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["field"] != "quantity" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
