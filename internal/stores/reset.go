package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetRecordVersionV1 = 1

var (
	ErrResetNotFound       = errors.New("reset record not found")
	ErrResetSecretMismatch = errors.New("reset secret mismatch")
	ErrResetUnavailable    = errors.New("reset store unavailable")
)

// ResetRecord is a single-use password-reset grant. A user may hold several
// outstanding records at once; each is independently redeemable.
type ResetRecord struct {
	UserID     string
	SecretHash [32]byte
	ExpiresAt  int64
}

// ResetStore keeps TTL-bound reset records in Redis.
type ResetStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewResetStore(client redis.UniversalClient, prefix string) *ResetStore {
	if prefix == "" {
		prefix = "gs"
	}
	return &ResetStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *ResetStore) key(resetID string) string {
	return s.prefix + ":pr:" + resetID
}

func (s *ResetStore) Save(ctx context.Context, resetID string, record *ResetRecord, ttl time.Duration) error {
	encoded, err := encodeResetRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(resetID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}
	return nil
}

// Peek redeems the record as a lookup only: the record stays in place so a
// failed downstream write does not burn the token. The caller must Consume
// after the password change actually succeeds.
func (s *ResetStore) Peek(ctx context.Context, resetID string, providedHash [32]byte) (*ResetRecord, error) {
	data, err := s.redis.Get(ctx, s.key(resetID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResetNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}

	record, err := decodeResetRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() >= record.ExpiresAt {
		return nil, ErrResetNotFound
	}
	if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
		return nil, ErrResetSecretMismatch
	}

	return record, nil
}

// Consume deletes the record. No-op when absent.
func (s *ResetStore) Consume(ctx context.Context, resetID string) error {
	if err := s.redis.Del(ctx, s.key(resetID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}
	return nil
}

func encodeResetRecord(record *ResetRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(resetRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.UserID) == 0 || len(record.UserID) > 65535 {
		return nil, errors.New("invalid reset record user id length")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)
	buf.Write(record.SecretHash[:])

	return buf.Bytes(), nil
}

func decodeResetRecord(data []byte) (*ResetRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != resetRecordVersionV1 {
		return nil, errors.New("invalid reset record version")
	}

	record := &ResetRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}

	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	record.UserID = string(userID)

	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
