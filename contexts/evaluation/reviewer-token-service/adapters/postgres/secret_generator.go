package postgresadapter

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
)

const (
	secretPrefix = "rvw_"
	secretLength = 16
)

// RandomSecretGenerator issues opaque reviewer-token secrets in the form
// rvw_ followed by 16 URL-safe alphanumeric characters.
type RandomSecretGenerator struct{}

func (RandomSecretGenerator) NewSecret(_ context.Context) (string, error) {
	// 24 random bytes encode to 32 characters, which keeps at least 16
	// left after stripping the URL-safe punctuation.
	for {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		encoded := base64.RawURLEncoding.EncodeToString(buf)
		encoded = strings.ReplaceAll(encoded, "-", "")
		encoded = strings.ReplaceAll(encoded, "_", "")
		if len(encoded) >= secretLength {
			return secretPrefix + encoded[:secretLength], nil
		}
	}
}
