package authkit

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/pocketledger/authkit/internal/lockout"
	"github.com/pocketledger/authkit/pin"
	"github.com/pocketledger/authkit/storage"
	"github.com/pocketledger/authkit/token"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build; no I/O happens before then.
type Builder struct {
	config    Config
	directory Directory
	store     storage.Store
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithDirectory supplies the user-directory collaborator. Required.
func (b *Builder) WithDirectory(dir Directory) *Builder {
	b.directory = dir
	return b
}

// WithStorage supplies the key-value store for the audit snapshot, the
// remembered token, and pending challenges. Defaults to an in-process
// store when omitted.
func (b *Builder) WithStorage(store storage.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink attaches an optional sink that receives every security
// event asynchronously, in addition to the engine's bounded log.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration, wires the subsystems, and returns a
// ready Engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.directory == nil {
		return nil, errors.New("directory required")
	}

	if len(cfg.Token.Key) == 0 {
		// Ephemeral key: tokens, including remembered ones, will not
		// verify after a restart.
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		cfg.Token.Key = key
	}

	store := b.store
	if store == nil {
		store = storage.NewMemory()
	}

	pinHasher, err := pin.NewHasher(pin.Config{
		Memory:      cfg.PIN.Memory,
		Time:        cfg.PIN.Time,
		Parallelism: cfg.PIN.Parallelism,
		SaltLength:  cfg.PIN.SaltLength,
		KeyLength:   cfg.PIN.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(cfg.Token.Key, cfg.Token.TTL)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		directory:  b.directory,
		store:      store,
		pinHasher:  pinHasher,
		tokens:     tokens,
		twoFactor:  newTwoFactorManager(cfg.TwoFactor),
		lockouts:   lockout.NewTracker(lockout.Config{Threshold: cfg.Lockout.Threshold, Duration: cfg.Lockout.Duration}),
		challenges: newChallengeStore(store),
		auditLog:   newAuditLog(cfg.Audit, store),
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		now:        time.Now,
	}
	if b.clock != nil {
		engine.now = b.clock
	}
	engine.monitor = newSessionMonitor(cfg.Session.IdleTimeout, engine.expireSession)

	b.built = true
	return engine, nil
}
