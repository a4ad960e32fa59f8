package authkit

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pocketledger/authkit/storage"
)

const (
	challengeKeyPrefix     = "a2c"
	challengeRecordVersion = 1
)

// secondFactorChallenge parks a login that passed PIN verification and is
// waiting for its one-time code. Records live in the key-value store under
// a TTL so an abandoned login cannot be completed later.
type secondFactorChallenge struct {
	UserID    string
	ExpiresAt int64 // unix seconds
	Attempts  uint16
}

type challengeStore struct {
	store storage.Store
}

func newChallengeStore(store storage.Store) *challengeStore {
	return &challengeStore{store: store}
}

func (s *challengeStore) key(challengeID string) string {
	return challengeKeyPrefix + ":" + challengeID
}

func (s *challengeStore) Save(ctx context.Context, challengeID string, record *secondFactorChallenge, ttl time.Duration) error {
	encoded, err := encodeChallenge(record)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key(challengeID), encoded, ttl); err != nil {
		return fmt.Errorf("challenge save: %w", err)
	}
	return nil
}

func (s *challengeStore) Get(ctx context.Context, challengeID string, now time.Time) (*secondFactorChallenge, error) {
	data, err := s.store.Get(ctx, s.key(challengeID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrChallengeInvalid
		}
		return nil, fmt.Errorf("challenge load: %w", err)
	}

	record, err := decodeChallenge(data)
	if err != nil {
		return nil, ErrChallengeInvalid
	}
	if now.Unix() > record.ExpiresAt {
		_ = s.store.Delete(ctx, s.key(challengeID))
		return nil, ErrChallengeExpired
	}
	return record, nil
}

func (s *challengeStore) Delete(ctx context.Context, challengeID string) error {
	return s.store.Delete(ctx, s.key(challengeID))
}

// RecordFailure bumps the attempt counter for a pending challenge. Once
// maxAttempts is reached the challenge is deleted and exceeded is true;
// the caller must then restart the login from the PIN step.
func (s *challengeStore) RecordFailure(ctx context.Context, challengeID string, maxAttempts int, now time.Time) (exceeded bool, err error) {
	record, err := s.Get(ctx, challengeID, now)
	if err != nil {
		return false, err
	}

	record.Attempts++
	if int(record.Attempts) >= maxAttempts {
		_ = s.Delete(ctx, challengeID)
		return true, nil
	}

	ttl := time.Unix(record.ExpiresAt, 0).Sub(now)
	if ttl <= 0 {
		_ = s.Delete(ctx, challengeID)
		return false, ErrChallengeExpired
	}
	if err := s.Save(ctx, challengeID, record, ttl); err != nil {
		return false, err
	}
	return false, nil
}

func encodeChallenge(record *secondFactorChallenge) ([]byte, error) {
	if record == nil || record.UserID == "" {
		return nil, errors.New("invalid challenge record")
	}
	if len(record.UserID) > 0xffff {
		return nil, errors.New("challenge user id too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion)
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID)))
	buf.WriteString(record.UserID)
	_ = binary.Write(&buf, binary.BigEndian, record.ExpiresAt)
	_ = binary.Write(&buf, binary.BigEndian, record.Attempts)
	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (*secondFactorChallenge, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil || version != challengeRecordVersion {
		return nil, errors.New("unsupported challenge record version")
	}

	var idLen uint16
	if err := binary.Read(r, binary.BigEndian, &idLen); err != nil {
		return nil, err
	}
	id := make([]byte, idLen)
	if _, err := io.ReadFull(r, id); err != nil {
		return nil, err
	}

	record := &secondFactorChallenge{UserID: string(id)}
	if err := binary.Read(r, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	return record, nil
}
