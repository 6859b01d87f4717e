package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// WebhookSignature computes the hex HMAC-SHA512 of a webhook body under the
// gateway secret, the scheme the provider uses for its x-paystack-signature
// header.
func WebhookSignature(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidWebhookSignature checks a webhook body against the header value in
// constant time.
func ValidWebhookSignature(secretKey string, body []byte, signature string) bool {
	expected := WebhookSignature(secretKey, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
