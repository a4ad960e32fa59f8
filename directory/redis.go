package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/pocketledger/authkit"
)

// ErrUnavailable wraps Redis failures.
var ErrUnavailable = errors.New("directory: backend unavailable")

// Redis keeps credentials as JSON values in a single Redis hash, one field
// per user ID.
type Redis struct {
	client redis.UniversalClient
	key    string
}

// NewRedis creates a Redis directory. An empty hashKey defaults to
// "ak:users".
func NewRedis(client redis.UniversalClient, hashKey string) *Redis {
	if hashKey == "" {
		hashKey = "ak:users"
	}
	return &Redis{client: client, key: hashKey}
}

// Get implements authkit.Directory.
func (r *Redis) Get(ctx context.Context, userID string) (*authkit.Credential, error) {
	data, err := r.client.HGet(ctx, r.key, userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var cred authkit.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("directory: corrupt credential record: %w", err)
	}
	return &cred, nil
}

// List implements authkit.Directory. Results are ordered by user ID.
func (r *Redis) List(ctx context.Context) ([]authkit.Credential, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]authkit.Credential, 0, len(fields))
	for _, raw := range fields {
		var cred authkit.Credential
		if err := json.Unmarshal([]byte(raw), &cred); err != nil {
			return nil, fmt.Errorf("directory: corrupt credential record: %w", err)
		}
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Upsert implements authkit.Directory.
func (r *Redis) Upsert(ctx context.Context, cred authkit.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key, cred.UserID, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete implements authkit.Directory.
func (r *Redis) Delete(ctx context.Context, userID string) error {
	if err := r.client.HDel(ctx, r.key, userID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
