package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CertificateSigner produces the payload embedded in ownership certificate
// QR codes. The signature lets a field agent verify a certificate offline
// with nothing but the shared secret.
type CertificateSigner struct {
	secret []byte
}

func NewCertificateSigner(secret string) *CertificateSigner {
	return &CertificateSigner{secret: []byte(secret)}
}

type CertificatePayload struct {
	PropertyID uuid.UUID `json:"property_id"`
	UserID     uuid.UUID `json:"user_id"`
	EstateID   uuid.UUID `json:"estate_id"`
	Plots      []int64   `json:"plots"`
	IssuedAt   string    `json:"issued_at"`
	Signature  string    `json:"signature"`
}

func (s *CertificateSigner) Sign(propertyID, userID, estateID uuid.UUID, plots []int64) CertificatePayload {
	payload := CertificatePayload{
		PropertyID: propertyID,
		UserID:     userID,
		EstateID:   estateID,
		Plots:      plots,
		IssuedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	payload.Signature = s.signature(payload)
	return payload
}

// Verify checks the signature on a scanned payload.
func (s *CertificateSigner) Verify(payload CertificatePayload) bool {
	expected := s.signature(payload)
	return hmac.Equal([]byte(expected), []byte(payload.Signature))
}

func (s *CertificateSigner) signature(payload CertificatePayload) string {
	payload.Signature = ""
	body, _ := json.Marshal(payload)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
