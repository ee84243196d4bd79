package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Header names carrying the signature.
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderID        = "X-Webhook-ID"
)

// SignatureHeaders is the signature material attached to a delivery.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
	ID        string
}

// Apply sets the signature headers on h.
func (s SignatureHeaders) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Signature)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	if s.ID != "" {
		h.Set(HeaderID, s.ID)
	}
}

// SignPayload signs payload as hex(HMAC-SHA256(secret, "<unix-ts>.<payload>")).
func SignPayload(secret string, payload []byte) (SignatureHeaders, error) {
	return signAt(secret, payload, time.Now())
}

func signAt(secret string, payload []byte, at time.Time) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	ts := at.Unix()
	return SignatureHeaders{
		Signature: computeSignature(secret, ts, payload),
		Timestamp: ts,
		ID:        uuid.NewString(),
	}, nil
}

func computeSignature(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks headers against payload. With maxAge > 0 the
// timestamp must be no older than maxAge and at most one minute ahead.
func VerifySignature(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration) error {
	return verifyAt(secret, payload, headers, maxAge, time.Now())
}

func verifyAt(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if headers.Signature == "" {
		return fmt.Errorf("%w: signature is missing", ErrInvalidSignature)
	}

	if maxAge > 0 {
		age := now.Sub(time.Unix(headers.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: timestamp too old (%s)", ErrInvalidSignature, age.Truncate(time.Second))
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: timestamp is in the future", ErrInvalidSignature)
		}
	}

	expected := computeSignature(secret, headers.Timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

// ExtractSignatureHeaders reads the signature headers from an HTTP request.
func ExtractSignatureHeaders(h http.Header) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		Signature: h.Get(HeaderSignature),
		ID:        h.Get(HeaderID),
	}
	raw := h.Get(HeaderTimestamp)
	if sig.Signature == "" || raw == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: missing signature headers", ErrInvalidSignature)
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return SignatureHeaders{}, fmt.Errorf("%w: invalid timestamp %q", ErrInvalidSignature, raw)
	}
	sig.Timestamp = ts
	return sig, nil
}
