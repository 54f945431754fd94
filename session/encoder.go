package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Record layout, version 1. The consume and delete scripts in store.go read
// fields at these fixed 1-indexed byte positions; changing the layout means
// changing the scripts in lockstep.
//
//	1       version
//	2..33   secret hash (32)
//	34..41  created at, unix seconds, big endian
//	42..49  expires at, unix seconds, big endian
//	50      user id length
//	51..    user id
const recordVersionV1 = 1

func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)
	buf.Write(s.SecretHash[:])

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	if len(s.UserID) == 0 || len(s.UserID) > 255 {
		return nil, errors.New("invalid user id length")
	}
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid session record version")
	}

	s := &Session{}

	if _, err := io.ReadFull(reader, s.SecretHash[:]); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	s.UserID = string(userID)

	return s, nil
}
