package authkit

import (
	"errors"
	"fmt"
	"time"

	"github.com/pocketledger/authkit/pin"
	"github.com/pocketledger/authkit/token"
)

var (
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserNotFound is returned when a user ID has no credential in the
	// directory.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by CreateUser for a duplicate user ID.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when the submitted PIN does not
	// match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is matched (via errors.Is) by the *LockedError
	// returned while an account is in its lockout window.
	ErrAccountLocked = errors.New("account locked")
	// ErrSecondFactorInvalid is returned for a one-time code that does not
	// verify against the user's secret.
	ErrSecondFactorInvalid = errors.New("invalid second-factor code")
	// ErrSecondFactorNotEnabled is returned when a second-factor operation
	// targets a user without an enabled second factor.
	ErrSecondFactorNotEnabled = errors.New("second factor not enabled")
	// ErrSecondFactorReplay is returned when replay protection is on and a
	// code from an already-consumed time window is submitted.
	ErrSecondFactorReplay = errors.New("second-factor code already used")
	// ErrChallengeInvalid is returned for an unknown or spent pending
	// second-factor challenge.
	ErrChallengeInvalid = errors.New("second-factor challenge invalid")
	// ErrChallengeExpired is returned when a pending challenge outlived its
	// TTL before the code was confirmed.
	ErrChallengeExpired = errors.New("second-factor challenge expired")
	// ErrChallengeAttemptsExceeded is returned once a pending challenge has
	// absorbed its maximum number of failed codes.
	ErrChallengeAttemptsExceeded = errors.New("second-factor challenge attempts exceeded")
	// ErrNoStoredSession is returned by RestoreSession when no remembered
	// token exists.
	ErrNoStoredSession = errors.New("no stored session")
)

// Re-exported subsystem sentinels, so callers can errors.Is against the
// root package alone.
var (
	// ErrWeakPIN is returned when a raw PIN is below the minimum length.
	ErrWeakPIN = pin.ErrWeakPIN
	// ErrTokenMalformed indicates a session token that does not decode.
	ErrTokenMalformed = token.ErrMalformed
	// ErrTokenExpired indicates a session token older than the TTL.
	ErrTokenExpired = token.ErrExpired
	// ErrTokenTampered indicates a session token whose integrity tag does
	// not match the current credential state.
	ErrTokenTampered = token.ErrTampered
)

// LockedError reports an authentication attempt against a locked account.
// Remaining is how long until the lock window elapses; it is surfaced so
// the caller can display the cooldown without learning whether the PIN
// would have been correct.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.Remaining.Round(time.Second))
}

// Is makes errors.Is(err, ErrAccountLocked) hold for *LockedError.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
