package authkit

import (
	"sync"
	"time"

	"github.com/pocketledger/authkit/internal/lockout"
	"github.com/pocketledger/authkit/pin"
	"github.com/pocketledger/authkit/storage"
	"github.com/pocketledger/authkit/token"
)

// Engine orchestrates the authentication flows. Construct one per process
// through [Builder.Build]; it is then safe for concurrent use.
type Engine struct {
	config    Config
	directory Directory
	store     storage.Store

	pinHasher  *pin.Hasher
	tokens     *token.Manager
	twoFactor  *twoFactorManager
	lockouts   *lockout.Tracker
	challenges *challengeStore

	auditLog *auditLog
	audit    *auditDispatcher
	monitor  *sessionMonitor

	// credMu serializes credential read-modify-write cycles so concurrent
	// logins for the same user cannot lose updates.
	credMu sync.Mutex

	sessionMu sync.Mutex
	session   *activeSession

	now func() time.Time
}

// activeSession is the single logged-in session the surrounding
// application supports.
type activeSession struct {
	ID     string
	UserID string
	Token  string
}

// rememberedTokenKey is the storage key the issued token persists under
// when Session.Remember is enabled. Consumers must treat the stored value
// as opaque and round-trip it exactly.
const rememberedTokenKey = "auth-token"

// Close flushes the audit dispatcher and stops idle tracking. The engine
// must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.monitor != nil {
		if sid := e.monitor.Active(); sid != "" {
			e.monitor.Cancel(sid)
		}
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Touch signals user activity, re-arming the idle timer for the active
// session. Calls while logged out are no-ops.
func (e *Engine) Touch() {
	if e == nil || e.monitor == nil {
		return
	}
	e.monitor.Touch()
}

// ActiveSession reports the currently logged-in user and session ID.
func (e *Engine) ActiveSession() (userID, sessionID string, ok bool) {
	if e == nil {
		return "", "", false
	}
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()
	if e.session == nil {
		return "", "", false
	}
	return e.session.UserID, e.session.ID, true
}

// AuditDropped reports how many events the async sink dispatcher has
// dropped. The in-memory log and durable snapshot never drop.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}
