package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/pocketledger/authkit/storage"
)

// Validate checks a session token against the current credential state and
// returns the user ID it belongs to. Verification is a pure function of
// the token and the directory: no token table exists. Any failure
// (ErrTokenMalformed, ErrUserNotFound, ErrTokenExpired, ErrTokenTampered)
// means the session is invalid and the caller must force re-authentication;
// a token must never be partially trusted.
func (e *Engine) Validate(ctx context.Context, rawToken string) (string, error) {
	if e == nil || e.directory == nil {
		return "", ErrEngineNotReady
	}

	claims, err := e.tokens.Decode(rawToken)
	if err != nil {
		return "", err
	}

	cred, err := e.directory.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("directory lookup: %w", err)
	}

	return e.tokens.Verify(rawToken, cred.PINHash, e.now())
}

// RestoreSession re-adopts the remembered token from storage, typically at
// process start. An invalid or expired token is discarded and the caller
// must run a fresh login; a valid one restarts idle tracking without
// emitting a login event.
func (e *Engine) RestoreSession(ctx context.Context) (*LoginResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	data, err := e.store.Get(ctx, rememberedTokenKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoStoredSession
		}
		return nil, err
	}

	tok := string(data)
	userID, err := e.Validate(ctx, tok)
	if err != nil {
		_ = e.store.Delete(ctx, rememberedTokenKey)
		return nil, err
	}

	e.startSession(ctx, userID, tok)
	return &LoginResult{UserID: userID, Token: tok}, nil
}
