package authkit

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Event types in the persisted audit format. FAILED_LOGIN records each
// counted failure with its attempt number; LOGIN_FAILED records the
// rejected login itself with a reason.
const (
	auditEventUserCreated      = "USER_CREATED"
	auditEventLoginSuccess     = "LOGIN_SUCCESS"
	auditEventLoginFailed      = "LOGIN_FAILED"
	auditEventFailedLogin      = "FAILED_LOGIN"
	auditEventAccountLocked    = "ACCOUNT_LOCKED"
	auditEventTwoFactorEnabled = "2FA_ENABLED"
	auditEventTwoFactorFailed  = "2FA_FAILED"
	auditEventLogout           = "LOGOUT"
	auditEventLoginError       = "LOGIN_ERROR"
)

// emitAudit records one event: synchronously into the bounded in-memory
// log (rewriting the durable snapshot), then asynchronously toward the
// optional sink. A snapshot write failure costs durability, not the login:
// it degrades to a warning and in-memory state remains the truth.
func (e *Engine) emitAudit(ctx context.Context, eventType, userID string, details map[string]string) {
	if e == nil || e.auditLog == nil {
		return
	}

	event := SecurityEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Details:   details,
	}

	if err := e.auditLog.Append(ctx, event); err != nil {
		log.Printf("authkit: audit snapshot write failed: %v", err)
	}

	e.audit.Emit(ctx, event)
}

// SecurityEvents returns the in-memory audit log in insertion order,
// oldest first. Callers needing most-recent-first must reverse.
func (e *Engine) SecurityEvents() []SecurityEvent {
	if e == nil || e.auditLog == nil {
		return nil
	}
	return e.auditLog.Events()
}
