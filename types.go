package authkit

import (
	"context"
	"time"
)

// Credential is the per-user authentication material owned by the engine.
// The raw PIN never appears here: PINHash is a PHC-encoded Argon2id hash.
// Mutations go through the engine (CreateUser, SetPIN, the second-factor
// setup methods, and the internal last-login update); the record is only
// destroyed when the owning user is deleted.
type Credential struct {
	UserID            string    `json:"userId"`
	PINHash           string    `json:"pinHash"`
	TwoFactorEnabled  bool      `json:"twoFactorEnabled"`
	TwoFactorSecret   string    `json:"twoFactorSecret,omitempty"`
	TwoFactorLastStep int64     `json:"twoFactorLastStep,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	LastLoginAt       time.Time `json:"lastLoginAt,omitzero"`
}

// Directory is the user-directory collaborator the host application must
// implement. The engine never touches raw storage; every credential read
// and write goes through this interface. Reference implementations live in
// the directory package.
type Directory interface {
	// Get returns the credential for userID, or ErrUserNotFound.
	Get(ctx context.Context, userID string) (*Credential, error)
	// List returns all credentials.
	List(ctx context.Context) ([]Credential, error)
	// Upsert creates or replaces a credential.
	Upsert(ctx context.Context, cred Credential) error
	// Delete removes a credential. Deleting an absent user is not an error.
	Delete(ctx context.Context, userID string) error
}

// LoginResult is returned by [Engine.Login], [Engine.ConfirmSecondFactor],
// and [Engine.RestoreSession]. When SecondFactorRequired is set the login
// is parked on a pending challenge and Token is empty; the caller must
// follow up with ConfirmSecondFactor using ChallengeID.
type LoginResult struct {
	UserID string
	Token  string

	SecondFactorRequired bool
	ChallengeID          string
}

// SecondFactorProvision is returned by [Engine.ProvisionSecondFactor]. It
// carries the freshly generated shared secret and the code currently valid
// for it, so the caller can display both during enrollment.
type SecondFactorProvision struct {
	Secret      string
	CurrentCode string
}
