package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Login runs the full authentication flow for userID: lockout gate, PIN
// verification, and the second-factor branch. The lockout check happens
// strictly before PIN verification, and a locked account rejects with the
// remaining cooldown without revealing whether the PIN was correct.
//
// Outcomes:
//   - *LockedError (errors.Is ErrAccountLocked) while the lock window holds
//   - ErrUserNotFound / ErrInvalidCredentials on a failed attempt
//   - LoginResult with SecondFactorRequired and a ChallengeID when a
//     one-time code must follow via [Engine.ConfirmSecondFactor]
//   - LoginResult with an issued token on success
func (e *Engine) Login(ctx context.Context, userID, rawPIN string) (*LoginResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	now := e.now()
	if locked, remaining := e.lockouts.Status(userID, now); locked {
		return nil, &LockedError{Remaining: remaining}
	}

	cred, err := e.directory.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventLoginFailed, userID, map[string]string{
				"reason": "user_not_found",
			})
			return nil, ErrUserNotFound
		}
		e.emitAudit(ctx, auditEventLoginError, userID, map[string]string{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	ok, err := e.pinHasher.Verify(rawPIN, cred.PINHash)
	if err != nil {
		e.emitAudit(ctx, auditEventLoginError, userID, map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}
	if !ok {
		e.recordFailedAttempt(ctx, userID, now)
		e.emitAudit(ctx, auditEventLoginFailed, userID, map[string]string{
			"reason": "invalid_pin",
		})
		return nil, ErrInvalidCredentials
	}

	// Successful PIN verification clears the failure counter even when a
	// second factor is still outstanding.
	e.lockouts.Reset(userID)

	if cred.TwoFactorEnabled && cred.TwoFactorSecret != "" {
		challengeID := uuid.NewString()
		record := &secondFactorChallenge{
			UserID:    cred.UserID,
			ExpiresAt: now.Add(e.config.TwoFactor.ChallengeTTL).Unix(),
		}
		if err := e.challenges.Save(ctx, challengeID, record, e.config.TwoFactor.ChallengeTTL); err != nil {
			e.emitAudit(ctx, auditEventLoginError, userID, map[string]string{
				"error": err.Error(),
			})
			return nil, err
		}
		return &LoginResult{
			UserID:               cred.UserID,
			SecondFactorRequired: true,
			ChallengeID:          challengeID,
		}, nil
	}

	return e.completeLogin(ctx, cred.UserID)
}

// ConfirmSecondFactor finishes a login parked on a pending challenge. A
// wrong code counts against both the lockout tracker and the challenge's
// attempt budget; the challenge survives failures (the caller stays in the
// pending state) until its budget or TTL runs out.
func (e *Engine) ConfirmSecondFactor(ctx context.Context, challengeID, code string) (*LoginResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}
	if challengeID == "" {
		return nil, ErrChallengeInvalid
	}

	now := e.now()
	record, err := e.challenges.Get(ctx, challengeID, now)
	if err != nil {
		return nil, err
	}

	if locked, remaining := e.lockouts.Status(record.UserID, now); locked {
		return nil, &LockedError{Remaining: remaining}
	}

	cred, err := e.directory.Get(ctx, record.UserID)
	if err != nil {
		_ = e.challenges.Delete(ctx, challengeID)
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	if !cred.TwoFactorEnabled || cred.TwoFactorSecret == "" {
		_ = e.challenges.Delete(ctx, challengeID)
		return nil, ErrSecondFactorNotEnabled
	}

	ok, step, err := e.twoFactor.Verify(cred.TwoFactorSecret, code, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.recordFailedAttempt(ctx, record.UserID, now)
		e.emitAudit(ctx, auditEventTwoFactorFailed, record.UserID, nil)

		exceeded, ferr := e.challenges.RecordFailure(ctx, challengeID, e.config.TwoFactor.MaxAttempts, now)
		if ferr != nil {
			return nil, ferr
		}
		if exceeded {
			return nil, ErrChallengeAttemptsExceeded
		}
		return nil, ErrSecondFactorInvalid
	}

	if e.config.TwoFactor.EnforceReplayProtection {
		if err := e.commitSecondFactorStep(ctx, record.UserID, step); err != nil {
			if errors.Is(err, ErrSecondFactorReplay) {
				e.emitAudit(ctx, auditEventTwoFactorFailed, record.UserID, map[string]string{
					"reason": "replay",
				})
				return nil, ErrSecondFactorReplay
			}
			return nil, fmt.Errorf("directory lookup: %w", err)
		}
	}

	_ = e.challenges.Delete(ctx, challengeID)
	e.lockouts.Reset(record.UserID)

	return e.completeLogin(ctx, record.UserID)
}

// commitSecondFactorStep records the accepted time step on a fresh read of
// the credential under credMu. The replay check runs against the stored
// value, so two concurrent confirmations of the same code cannot both
// pass, and a PIN rotation that raced the confirmation is not overwritten.
func (e *Engine) commitSecondFactorStep(ctx context.Context, userID string, step int64) error {
	e.credMu.Lock()
	defer e.credMu.Unlock()

	cred, err := e.directory.Get(ctx, userID)
	if err != nil {
		return err
	}
	if step <= cred.TwoFactorLastStep {
		return ErrSecondFactorReplay
	}

	cred.TwoFactorLastStep = step
	if err := e.directory.Upsert(ctx, *cred); err != nil {
		log.Printf("authkit: second-factor step update failed: %v", err)
	}
	return nil
}

// Logout terminates the active session: the LOGOUT event is recorded, the
// idle timer is cancelled, and the remembered token is discarded. The
// token itself is not revocable; trust in it ends here.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	e.sessionMu.Lock()
	session := e.session
	e.session = nil
	e.sessionMu.Unlock()

	if session == nil {
		return nil
	}

	e.emitAudit(ctx, auditEventLogout, session.UserID, nil)
	e.monitor.Cancel(session.ID)

	if err := e.store.Delete(ctx, rememberedTokenKey); err != nil {
		log.Printf("authkit: remembered token delete failed: %v", err)
	}
	return nil
}

// completeLogin stamps last-login on a fresh read of the credential,
// issues the token against the state as stored, starts idle tracking, and
// persists the remembered token. The fresh read keeps a PIN rotation that
// raced the login from being overwritten, and binds the token to the hash
// that actually won.
func (e *Engine) completeLogin(ctx context.Context, userID string) (*LoginResult, error) {
	cred, err := e.recordLogin(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		e.emitAudit(ctx, auditEventLoginError, userID, map[string]string{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	tok, err := e.tokens.Issue(cred.UserID, cred.PINHash, e.now())
	if err != nil {
		e.emitAudit(ctx, auditEventLoginError, cred.UserID, map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}

	e.startSession(ctx, cred.UserID, tok)

	e.emitAudit(ctx, auditEventLoginSuccess, cred.UserID, map[string]string{
		"twoFactor": strconv.FormatBool(cred.TwoFactorEnabled),
	})

	return &LoginResult{UserID: cred.UserID, Token: tok}, nil
}

func (e *Engine) startSession(ctx context.Context, userID, tok string) {
	sessionID := uuid.NewString()

	e.sessionMu.Lock()
	previous := e.session
	e.session = &activeSession{ID: sessionID, UserID: userID, Token: tok}
	e.sessionMu.Unlock()

	if previous != nil {
		e.monitor.Cancel(previous.ID)
	}
	e.monitor.StartOrReset(sessionID)

	if e.config.Session.Remember {
		if err := e.store.Set(ctx, rememberedTokenKey, []byte(tok), 0); err != nil {
			log.Printf("authkit: remembered token write failed: %v", err)
		}
	}
}

// recordFailedAttempt feeds the lockout tracker and emits the per-failure
// events, including ACCOUNT_LOCKED when this failure trips the threshold.
func (e *Engine) recordFailedAttempt(ctx context.Context, userID string, now time.Time) {
	attempts, locked := e.lockouts.RecordFailure(userID, now)
	e.emitAudit(ctx, auditEventFailedLogin, userID, map[string]string{
		"attempts": strconv.Itoa(attempts),
	})
	if locked {
		e.emitAudit(ctx, auditEventAccountLocked, userID, map[string]string{
			"reason": "too_many_failed_attempts",
		})
	}
}

// expireSession is the idle-timer callback. The monitor's generation check
// already resolved the cancel/fire race; here the session identity is
// checked once more against current state before the logout is applied.
func (e *Engine) expireSession(sessionID string) {
	ctx := context.Background()

	e.sessionMu.Lock()
	session := e.session
	if session == nil || session.ID != sessionID {
		e.sessionMu.Unlock()
		return
	}
	e.session = nil
	e.sessionMu.Unlock()

	e.emitAudit(ctx, auditEventLogout, session.UserID, map[string]string{
		"reason": "idle_timeout",
	})

	if err := e.store.Delete(ctx, rememberedTokenKey); err != nil {
		log.Printf("authkit: remembered token delete failed: %v", err)
	}

	if e.config.Session.OnExpired != nil {
		e.config.Session.OnExpired(sessionID)
	}
}
