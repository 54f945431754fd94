package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestResetStore(t *testing.T) (*ResetStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewResetStore(rdb, "gs"), mr
}

func hashByte(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func testRecord(userID string, hash [32]byte, ttl time.Duration) *ResetRecord {
	return &ResetRecord{
		UserID:     userID,
		SecretHash: hash,
		ExpiresAt:  time.Now().Add(ttl).Unix(),
	}
}

func TestResetSaveAndPeek(t *testing.T) {
	store, _ := newTestResetStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "reset-1", testRecord("user-1", hashByte(1), time.Hour), time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	record, err := store.Peek(ctx, "reset-1", hashByte(1))
	if err != nil {
		t.Fatalf("peek failed: %v", err)
	}
	if record.UserID != "user-1" {
		t.Fatalf("user id = %q, want user-1", record.UserID)
	}

	// Peek does not burn the record.
	if _, err := store.Peek(ctx, "reset-1", hashByte(1)); err != nil {
		t.Fatalf("second peek failed: %v", err)
	}
}

func TestResetPeekSecretMismatch(t *testing.T) {
	store, _ := newTestResetStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "reset-1", testRecord("user-1", hashByte(1), time.Hour), time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := store.Peek(ctx, "reset-1", hashByte(2)); !errors.Is(err, ErrResetSecretMismatch) {
		t.Fatalf("err = %v, want ErrResetSecretMismatch", err)
	}

	// Unlike refresh sessions, a mismatched reset lookup leaves the record
	// in place for the legitimate holder.
	if _, err := store.Peek(ctx, "reset-1", hashByte(1)); err != nil {
		t.Fatalf("record destroyed by mismatch: %v", err)
	}
}

func TestResetPeekUnknown(t *testing.T) {
	store, _ := newTestResetStore(t)

	if _, err := store.Peek(context.Background(), "missing", hashByte(1)); !errors.Is(err, ErrResetNotFound) {
		t.Fatalf("err = %v, want ErrResetNotFound", err)
	}
}

func TestResetConsume(t *testing.T) {
	store, _ := newTestResetStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "reset-1", testRecord("user-1", hashByte(1), time.Hour), time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.Consume(ctx, "reset-1"); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if _, err := store.Peek(ctx, "reset-1", hashByte(1)); !errors.Is(err, ErrResetNotFound) {
		t.Fatalf("record survived consume, err = %v", err)
	}

	// Consume of an absent record is a no-op.
	if err := store.Consume(ctx, "reset-1"); err != nil {
		t.Fatalf("repeat consume failed: %v", err)
	}
}

func TestResetNativeTTLExpiry(t *testing.T) {
	store, mr := newTestResetStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "reset-1", testRecord("user-1", hashByte(1), time.Minute), time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Peek(ctx, "reset-1", hashByte(1)); !errors.Is(err, ErrResetNotFound) {
		t.Fatalf("err = %v, want ErrResetNotFound after TTL", err)
	}
}

func TestResetEmbeddedExpiry(t *testing.T) {
	store, _ := newTestResetStore(t)
	ctx := context.Background()

	record := &ResetRecord{
		UserID:     "user-1",
		SecretHash: hashByte(1),
		ExpiresAt:  time.Now().Add(-time.Minute).Unix(),
	}
	if err := store.Save(ctx, "reset-1", record, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := store.Peek(ctx, "reset-1", hashByte(1)); !errors.Is(err, ErrResetNotFound) {
		t.Fatalf("err = %v, want ErrResetNotFound for embedded expiry", err)
	}
}

func TestResetRecordEncodeDecode(t *testing.T) {
	record := testRecord("some-longer-user-identifier", hashByte(200), time.Hour)

	data, err := encodeResetRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := decodeResetRecord(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.UserID != record.UserID || got.SecretHash != record.SecretHash || got.ExpiresAt != record.ExpiresAt {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, record)
	}

	if _, err := decodeResetRecord([]byte{9}); err == nil {
		t.Fatal("garbage decoded")
	}
}
