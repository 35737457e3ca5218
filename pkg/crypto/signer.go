package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
)

// SignatureHeader carries the hex HMAC-SHA256 of a prediction response body.
const SignatureHeader = "X-Signature"

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

// NewSigner returns nil for an empty secret; a nil Signer signs nothing and
// accepts everything.
func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if secretKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Enabled() bool {
	return s != nil
}

func (s *Signer) Sign(data []byte) string {
	if s == nil {
		return ""
	}
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) error {
	if s == nil {
		return nil
	}
	if signature == "" {
		s.logger.Warn("Response signature missing")
		return ErrMissingSignature
	}

	if !hmac.Equal([]byte(s.Sign(data)), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.Int("body_bytes", len(data)))
		return ErrInvalidSignature
	}

	return nil
}
