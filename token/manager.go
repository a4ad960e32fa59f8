package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const separator = "."

var (
	// ErrMalformed indicates the token does not decode to the expected
	// three-field structure.
	ErrMalformed = errors.New("malformed token")
	// ErrExpired indicates the token's issue time is older than the TTL.
	ErrExpired = errors.New("token expired")
	// ErrTampered indicates the integrity tag does not match the tag
	// recomputed from the current credential state.
	ErrTampered = errors.New("token integrity tag mismatch")
	// ErrInvalidUserID indicates the user ID cannot be embedded in the
	// wire format.
	ErrInvalidUserID = errors.New("user id not representable in token")
)

// Claims is the decoded form of a session token.
type Claims struct {
	UserID   string
	Tag      string
	IssuedAt time.Time
}

// Manager issues and verifies session tokens under a fixed HMAC key and TTL.
type Manager struct {
	key []byte
	ttl time.Duration
}

// NewManager returns a Manager. The key must be non-empty; ttl bounds token
// lifetime from issue time.
func NewManager(key []byte, ttl time.Duration) (*Manager, error) {
	if len(key) == 0 {
		return nil, errors.New("token key must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Manager{key: k, ttl: ttl}, nil
}

// Issue builds a token binding userID to pinHash at the given issue time.
func (m *Manager) Issue(userID, pinHash string, now time.Time) (string, error) {
	if userID == "" || strings.Contains(userID, separator) {
		return "", ErrInvalidUserID
	}

	millis := now.UnixMilli()
	tag := m.tag(userID, pinHash, millis)
	return userID + separator + tag + separator + strconv.FormatInt(millis, 10), nil
}

// Decode splits a raw token into Claims without checking expiry or the tag.
// Callers use the UserID to look up the credential, then call Verify.
func (m *Manager) Decode(raw string) (Claims, error) {
	parts := strings.Split(raw, separator)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Claims{}, ErrMalformed
	}
	if _, err := hex.DecodeString(parts[1]); err != nil {
		return Claims{}, ErrMalformed
	}
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Claims{}, ErrMalformed
	}

	return Claims{
		UserID:   parts[0],
		Tag:      parts[1],
		IssuedAt: time.UnixMilli(millis),
	}, nil
}

// Verify checks a raw token against the currently stored pinHash. It returns
// the user ID on success, or ErrMalformed, ErrExpired, or ErrTampered.
func (m *Manager) Verify(raw, pinHash string, now time.Time) (string, error) {
	claims, err := m.Decode(raw)
	if err != nil {
		return "", err
	}

	// An issue time in the future cannot come from this issuer.
	if claims.IssuedAt.After(now) {
		return "", ErrTampered
	}
	if now.Sub(claims.IssuedAt) > m.ttl {
		return "", ErrExpired
	}

	expected := m.tag(claims.UserID, pinHash, claims.IssuedAt.UnixMilli())
	if !hmac.Equal([]byte(expected), []byte(claims.Tag)) {
		return "", ErrTampered
	}

	return claims.UserID, nil
}

func (m *Manager) tag(userID, pinHash string, issuedAtMillis int64) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(userID))
	mac.Write([]byte(":"))
	mac.Write([]byte(pinHash))
	mac.Write([]byte(":"))
	mac.Write([]byte(strconv.FormatInt(issuedAtMillis, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
