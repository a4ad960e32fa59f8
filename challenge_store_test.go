package authkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pocketledger/authkit/storage"
)

func TestChallengeRecordRoundTrip(t *testing.T) {
	in := &secondFactorChallenge{
		UserID:    "alice",
		ExpiresAt: 1700000300,
		Attempts:  2,
	}

	encoded, err := encodeChallenge(in)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	out, err := decodeChallenge(encoded)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestChallengeDecodeRejectsBadInput(t *testing.T) {
	good, err := encodeChallenge(&secondFactorChallenge{UserID: "alice", ExpiresAt: 1700000300})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	for name, data := range map[string][]byte{
		"empty":       nil,
		"bad version": append([]byte{0xff}, good[1:]...),
		"truncated":   good[:len(good)-4],
	} {
		if _, err := decodeChallenge(data); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
}

func TestChallengeGetUnknownID(t *testing.T) {
	cs := newChallengeStore(storage.NewMemory())

	_, err := cs.Get(context.Background(), "missing", time.Unix(1700000000, 0))
	if !errors.Is(err, ErrChallengeInvalid) {
		t.Fatalf("expected ErrChallengeInvalid, got %v", err)
	}
}

func TestChallengeExpiry(t *testing.T) {
	cs := newChallengeStore(storage.NewMemory())
	ctx := context.Background()
	issued := time.Unix(1700000000, 0)

	record := &secondFactorChallenge{UserID: "alice", ExpiresAt: issued.Add(5 * time.Minute).Unix()}
	if err := cs.Save(ctx, "c1", record, 0); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if got, err := cs.Get(ctx, "c1", issued.Add(4*time.Minute)); err != nil || got.UserID != "alice" {
		t.Fatalf("expected live challenge, got %+v err %v", got, err)
	}

	if _, err := cs.Get(ctx, "c1", issued.Add(6*time.Minute)); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}

	// Expiry deletes the record, so a later in-window read also fails.
	if _, err := cs.Get(ctx, "c1", issued); !errors.Is(err, ErrChallengeInvalid) {
		t.Fatalf("expected ErrChallengeInvalid after expiry delete, got %v", err)
	}
}

func TestChallengeAttemptBudget(t *testing.T) {
	cs := newChallengeStore(storage.NewMemory())
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	record := &secondFactorChallenge{UserID: "alice", ExpiresAt: now.Add(5 * time.Minute).Unix()}
	if err := cs.Save(ctx, "c1", record, 0); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	for i := 1; i < 5; i++ {
		exceeded, err := cs.RecordFailure(ctx, "c1", 5, now)
		if err != nil {
			t.Fatalf("failure %d: %v", i, err)
		}
		if exceeded {
			t.Fatalf("failure %d: budget exhausted early", i)
		}
	}

	exceeded, err := cs.RecordFailure(ctx, "c1", 5, now)
	if err != nil {
		t.Fatalf("final failure: %v", err)
	}
	if !exceeded {
		t.Fatal("expected attempt budget exhausted at the fifth failure")
	}

	// The exhausted challenge is gone; the login must restart.
	if _, err := cs.Get(ctx, "c1", now); !errors.Is(err, ErrChallengeInvalid) {
		t.Fatalf("expected ErrChallengeInvalid after exhaustion, got %v", err)
	}
}
