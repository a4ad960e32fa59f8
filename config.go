package authkit

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Zero values are filled from
// defaultConfig by [New]; a Config handed to [Builder.WithConfig] is cloned
// and then treated as immutable.
type Config struct {
	Token     TokenConfig
	Lockout   LockoutConfig
	TwoFactor TwoFactorConfig
	Session   SessionConfig
	PIN       PINConfig
	Audit     AuditConfig
}

// TokenConfig governs session-token issuance and verification.
type TokenConfig struct {
	// TTL bounds token lifetime from issue time.
	TTL time.Duration
	// Key is the HMAC key for integrity tags. When empty, Build generates
	// an ephemeral key; remembered sessions then do not survive a restart.
	Key []byte
}

// LockoutConfig governs the brute-force lockout policy.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// TwoFactorConfig governs the time-windowed one-time-code second factor.
type TwoFactorConfig struct {
	// Period is the code rotation window.
	Period time.Duration
	// Digits is the code length (hex characters of the derivation digest).
	Digits int
	// ChallengeTTL bounds how long a pending login may wait for its code.
	ChallengeTTL time.Duration
	// MaxAttempts caps failed codes per pending challenge.
	MaxAttempts int
	// EnforceReplayProtection rejects codes from time windows at or below
	// the last accepted one.
	EnforceReplayProtection bool
	// LegacyRotationFallback additionally accepts the code derived from
	// the secret rotated by one character, reproducing the original
	// client's drift tolerance for wire compatibility. Leave off unless
	// codes must match an unpatched client.
	LegacyRotationFallback bool
}

// SessionConfig governs the logged-in session lifecycle.
type SessionConfig struct {
	// IdleTimeout is how long a session survives without activity.
	IdleTimeout time.Duration
	// Remember persists the issued token so RestoreSession can re-adopt it
	// after a restart.
	Remember bool
	// OnExpired, when set, is called after an idle session has been logged
	// out. It runs on the timer goroutine.
	OnExpired func(sessionID string)
}

// PINConfig carries the Argon2id parameters for PIN hashing.
type PINConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig governs the bounded security audit log.
type AuditConfig struct {
	// MemoryCap is the maximum in-memory event count; the oldest entry is
	// evicted beyond it.
	MemoryCap int
	// SnapshotSize is how many of the most recent events are persisted on
	// every append.
	SnapshotSize int
	// SnapshotKey is the storage key the snapshot is written under.
	SnapshotKey string
	// BufferSize is the async sink dispatch buffer.
	BufferSize int
	// DropIfFull drops events for the sink (never for the in-memory log)
	// when the dispatch buffer is full.
	DropIfFull bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL: 24 * time.Hour,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		TwoFactor: TwoFactorConfig{
			Period:                  30 * time.Second,
			Digits:                  6,
			ChallengeTTL:            5 * time.Minute,
			MaxAttempts:             5,
			EnforceReplayProtection: false,
			LegacyRotationFallback:  false,
		},
		Session: SessionConfig{
			IdleTimeout: 30 * time.Minute,
			Remember:    true,
		},
		PIN: PINConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			MemoryCap:    1000,
			SnapshotSize: 100,
			SnapshotKey:  "security-logs",
			BufferSize:   64,
			DropIfFull:   true,
		},
	}
}

// Validate checks cross-field consistency before the engine is built.
func (c *Config) Validate() error {
	if c.Token.TTL <= 0 {
		return errors.New("Token.TTL must be positive")
	}
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout.Threshold must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout.Duration must be positive")
	}
	if c.TwoFactor.Period <= 0 {
		return errors.New("TwoFactor.Period must be positive")
	}
	if c.TwoFactor.Digits <= 0 || c.TwoFactor.Digits > 64 {
		return errors.New("TwoFactor.Digits must be in 1..64")
	}
	if c.TwoFactor.ChallengeTTL <= 0 {
		return errors.New("TwoFactor.ChallengeTTL must be positive")
	}
	if c.TwoFactor.MaxAttempts <= 0 {
		return errors.New("TwoFactor.MaxAttempts must be positive")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session.IdleTimeout must be positive")
	}
	if c.Audit.MemoryCap <= 0 {
		return errors.New("Audit.MemoryCap must be positive")
	}
	if c.Audit.SnapshotSize <= 0 || c.Audit.SnapshotSize > c.Audit.MemoryCap {
		return errors.New("Audit.SnapshotSize must be in 1..Audit.MemoryCap")
	}
	if c.Audit.SnapshotKey == "" {
		return errors.New("Audit.SnapshotKey must not be empty")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Token.Key != nil {
		out.Token.Key = make([]byte, len(cfg.Token.Key))
		copy(out.Token.Key, cfg.Token.Key)
	}
	return out
}
