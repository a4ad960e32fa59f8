package authkit

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/pocketledger/authkit/internal/hashing"
)

// Secrets are 20 random bytes; base32 (A-Z, 2-7) without padding yields the
// 32-character shared secret shown to the user.
const twoFactorSecretBytes = 20

type twoFactorManager struct {
	config TwoFactorConfig
}

func newTwoFactorManager(cfg TwoFactorConfig) *twoFactorManager {
	return &twoFactorManager{config: cfg}
}

// GenerateSecret draws a fresh shared secret from a cryptographically
// strong source.
func (m *twoFactorManager) GenerateSecret() (string, error) {
	raw := make([]byte, twoFactorSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return enc.EncodeToString(raw), nil
}

// timeStep is the 30-second window index for now.
func (m *twoFactorManager) timeStep(now time.Time) int64 {
	return now.UnixMilli() / m.config.Period.Milliseconds()
}

// CodeAt derives the code valid for the window containing now: the first
// Digits hex characters of sha256(secret || timeStep), uppercased.
func (m *twoFactorManager) CodeAt(secret string, now time.Time) string {
	return m.codeForStep(secret, m.timeStep(now))
}

func (m *twoFactorManager) codeForStep(secret string, step int64) string {
	digest := hashing.HexString(secret + strconv.FormatInt(step, 10))
	return strings.ToUpper(digest[:m.config.Digits])
}

// Verify checks a submitted code, case-insensitively, against the current
// and previous windows. When LegacyRotationFallback is set it additionally
// accepts the original client's drift fallback: the code derived at the
// same step from the secret with its first character rotated to the end.
// On success it returns the time step the code matched, for replay
// tracking.
func (m *twoFactorManager) Verify(secret, submitted string, now time.Time) (bool, int64, error) {
	if secret == "" {
		return false, 0, errors.New("empty second-factor secret")
	}

	trimmed := strings.ToUpper(strings.TrimSpace(submitted))
	if len(trimmed) != m.config.Digits {
		return false, 0, nil
	}

	step := m.timeStep(now)
	candidates := []struct {
		secret string
		step   int64
	}{
		{secret, step},
		{secret, step - 1},
	}
	if m.config.LegacyRotationFallback && len(secret) > 1 {
		candidates = append(candidates, struct {
			secret string
			step   int64
		}{secret[1:] + secret[:1], step})
	}

	for _, c := range candidates {
		if c.step < 0 {
			continue
		}
		expected := m.codeForStep(c.secret, c.step)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(trimmed)) == 1 {
			return true, c.step, nil
		}
	}

	return false, 0, nil
}
