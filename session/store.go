package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps any Redis transport failure.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrSessionNotFound is returned when no live session exists for a token id.
var ErrSessionNotFound = errors.New("session not found")

// ErrSecretMismatch is returned by Consume when the session exists but the
// presented secret hash does not match. The session is destroyed as a theft
// signal before this error is reported.
var ErrSecretMismatch = errors.New("refresh secret mismatch")

// ErrSessionCorrupt is returned when a stored record blob cannot be decoded.
var ErrSessionCorrupt = errors.New("session record corrupt")

const (
	consumeStatusNotFound    int64 = 0
	consumeStatusMismatch    int64 = 1
	consumeStatusConsumed    int64 = 2
	consumeStatusInvalidBlob int64 = 3
)

// consumeScript is the at-most-once rotation primitive: it deletes the
// session and returns its record in one atomic step, so of two concurrent
// callers presenting the same token id exactly one observes the record.
// Field offsets follow the version-1 layout documented in encoder.go.
const consumeScript = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

local uid_len = string.byte(data, 50)
if string.byte(data, 1) ~= 1 or not uid_len or #data < 50 + uid_len then
  redis.call("DEL", KEYS[1])
  return {3}
end

local user_key = ARGV[1] .. string.sub(data, 51, 50 + uid_len)
redis.call("DEL", KEYS[1])
redis.call("SREM", user_key, ARGV[2])

local expires_at = read_be64(data, 42)
if not expires_at or expires_at <= tonumber(ARGV[4]) then
  return {0}
end

if string.sub(data, 2, 33) ~= ARGV[3] then
  return {1}
end

return {2, data}
`

var consumeLua = redis.NewScript(consumeScript)

// deleteScript removes a session and its user-index entry. Safe to run on an
// absent token id.
const deleteScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local uid_len = string.byte(data, 50)
if uid_len and #data >= 50 + uid_len then
  redis.call("SREM", ARGV[1] .. string.sub(data, 51, 50 + uid_len), ARGV[2])
end
redis.call("DEL", KEYS[1])
return 1
`

var deleteLua = redis.NewScript(deleteScript)

// Store is a Redis-backed refresh-session store. Expiry is delegated to the
// store's native TTL; there is no background sweep. All cross-key updates go
// through Lua scripts or Tx pipelines so the invariants hold under arbitrary
// concurrent callers, in or out of process.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session Store namespaced under the given key prefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gs"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(tokenID string) string {
	return s.prefix + ":s:" + tokenID
}

func (s *Store) userKeyPrefix() string {
	return s.prefix + ":u:"
}

func (s *Store) userKey(userID string) string {
	return s.userKeyPrefix() + userID
}

// Save persists a Session and registers it in the owner's token index.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.TokenID), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.TokenID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get fetches a session without mutating any store state.
func (s *Store) Get(ctx context.Context, tokenID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrSessionCorrupt, err)
	}
	sess.TokenID = tokenID

	if time.Now().Unix() >= sess.ExpiresAt {
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

// Consume atomically deletes the session for tokenID and returns its record,
// provided the presented secret hash matches. A mismatch also deletes the
// session (possible theft; the legitimate holder must re-authenticate) and
// returns ErrSecretMismatch. An absent or expired session returns
// ErrSessionNotFound. At most one concurrent caller succeeds per token id.
func (s *Store) Consume(ctx context.Context, tokenID string, providedHash [32]byte, now time.Time) (*Session, error) {
	result, err := consumeLua.Run(
		ctx,
		s.redis,
		[]string{s.key(tokenID)},
		s.userKeyPrefix(),
		tokenID,
		providedHash[:],
		now.Unix(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid consume script response", ErrStoreUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid consume script status", ErrStoreUnavailable)
	}

	switch code {
	case consumeStatusNotFound:
		return nil, ErrSessionNotFound
	case consumeStatusMismatch:
		return nil, ErrSecretMismatch
	case consumeStatusInvalidBlob:
		return nil, errors.Join(ErrStoreUnavailable, ErrSessionCorrupt)
	case consumeStatusConsumed:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing consumed session payload", ErrStoreUnavailable)
		}

		var blob []byte
		switch v := parts[1].(type) {
		case string:
			blob = []byte(v)
		case []byte:
			blob = v
		default:
			return nil, fmt.Errorf("%w: invalid consumed session payload", ErrStoreUnavailable)
		}

		sess, decErr := Decode(blob)
		if decErr != nil {
			return nil, errors.Join(ErrSessionCorrupt, decErr)
		}
		sess.TokenID = tokenID
		return sess, nil
	default:
		return nil, fmt.Errorf("%w: unknown consume script status", ErrStoreUnavailable)
	}
}

// Delete removes a session and its index entry. Calling Delete on an absent
// token id is a no-op.
func (s *Store) Delete(ctx context.Context, tokenID string) error {
	_, err := deleteLua.Run(
		ctx,
		s.redis,
		[]string{s.key(tokenID)},
		s.userKeyPrefix(),
		tokenID,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every session tracked in the user's token index,
// then the index itself.
//
// ATOMICITY NOTE: this is not fully atomic. It reads the index (SMembers)
// and then deletes in a Tx pipeline; a session created between the two
// phases is not captured and will expire naturally or be caught by a later
// call. Stale index entries whose session already expired are tolerated and
// simply deleted with it.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	userKey := s.userKey(userID)

	tokenIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tokenID := range tokenIDs {
			pipe.Del(ctx, s.key(tokenID))
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// ActiveTokenIDs returns the token ids tracked for a user. Entries whose
// session already expired may still appear until best-effort cleanup runs.
func (s *Store) ActiveTokenIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ids, nil
}

// Ping reports store availability and round-trip latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
