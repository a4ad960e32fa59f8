package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// CreateUser enrolls a new credential for userID. The raw PIN is hashed
// before storage and never persisted; a PIN shorter than the minimum
// length fails with ErrWeakPIN. The credential is written to the directory
// before the call returns.
func (e *Engine) CreateUser(ctx context.Context, userID, rawPIN string) (*Credential, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" || strings.Contains(userID, ".") {
		return nil, errors.New("invalid user id")
	}

	e.credMu.Lock()
	defer e.credMu.Unlock()

	if _, err := e.directory.Get(ctx, userID); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	hash, err := e.pinHasher.Hash(rawPIN)
	if err != nil {
		return nil, err
	}

	cred := Credential{
		UserID:    userID,
		PINHash:   hash,
		CreatedAt: e.now().UTC(),
	}
	if err := e.directory.Upsert(ctx, cred); err != nil {
		return nil, fmt.Errorf("directory upsert: %w", err)
	}

	e.emitAudit(ctx, auditEventUserCreated, userID, nil)
	return &cred, nil
}

// VerifyPIN recomputes the hash of rawPIN and compares it to the stored
// credential in constant time. It does not touch the lockout tracker;
// Login is the gated path.
func (e *Engine) VerifyPIN(ctx context.Context, userID, rawPIN string) (bool, error) {
	if e == nil || e.directory == nil {
		return false, ErrEngineNotReady
	}

	cred, err := e.directory.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return e.pinHasher.Verify(rawPIN, cred.PINHash)
}

// SetPIN replaces a user's PIN. Every session token issued under the old
// hash stops verifying immediately, since tags are recomputed from the
// currently stored hash.
func (e *Engine) SetPIN(ctx context.Context, userID, rawPIN string) error {
	if e == nil || e.directory == nil {
		return ErrEngineNotReady
	}

	e.credMu.Lock()
	defer e.credMu.Unlock()

	cred, err := e.directory.Get(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := e.pinHasher.Hash(rawPIN)
	if err != nil {
		return err
	}

	cred.PINHash = hash
	if err := e.directory.Upsert(ctx, *cred); err != nil {
		return fmt.Errorf("directory upsert: %w", err)
	}
	return nil
}

// DeleteUser removes the credential. If the active session belongs to the
// deleted user it is terminated and the remembered token discarded.
func (e *Engine) DeleteUser(ctx context.Context, userID string) error {
	if e == nil || e.directory == nil {
		return ErrEngineNotReady
	}

	e.credMu.Lock()
	err := e.directory.Delete(ctx, userID)
	e.credMu.Unlock()
	if err != nil {
		return fmt.Errorf("directory delete: %w", err)
	}

	e.lockouts.Reset(userID)

	e.sessionMu.Lock()
	session := e.session
	if session != nil && session.UserID == userID {
		e.session = nil
	} else {
		session = nil
	}
	e.sessionMu.Unlock()

	if session != nil {
		e.monitor.Cancel(session.ID)
		if err := e.store.Delete(ctx, rememberedTokenKey); err != nil {
			log.Printf("authkit: remembered token delete failed: %v", err)
		}
	}
	return nil
}

// recordLogin re-reads the credential under credMu and stamps LastLoginAt
// on the fresh copy. Writing back an earlier snapshot here would revert
// any PIN rotation that landed after the login's own verification read.
// Returns the credential as persisted; a failed stamp write costs
// durability only.
func (e *Engine) recordLogin(ctx context.Context, userID string) (*Credential, error) {
	e.credMu.Lock()
	defer e.credMu.Unlock()

	cred, err := e.directory.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cred.LastLoginAt = e.now().UTC()
	if err := e.directory.Upsert(ctx, *cred); err != nil {
		log.Printf("authkit: last-login update failed: %v", err)
	}
	return cred, nil
}
