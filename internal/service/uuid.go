package service

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidUUID     = errors.New("invalid UUID format")
	ErrNotUUIDv7       = errors.New("UUID must be version 7")
	ErrFutureTimestamp = errors.New("UUID timestamp is too far in the future")
)

// MaxClientClockSkew is how far ahead of the server a client id may be stamped
const MaxClientClockSkew = time.Minute

// parseClientID checks an offline-generated log id and returns the creation
// time embedded in it. UUIDv7 ids carry Unix milliseconds in their first 48 bits.
func parseClientID(id string, now time.Time) (time.Time, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}
	if parsed.Version() != 7 {
		return time.Time{}, fmt.Errorf("%w: got version %d", ErrNotUUIDv7, parsed.Version())
	}

	stamped := uuidv7Time(parsed)
	if limit := now.Add(MaxClientClockSkew); stamped.After(limit) {
		return time.Time{}, fmt.Errorf("%w: %s is after %s",
			ErrFutureTimestamp, stamped.Format(time.RFC3339), limit.Format(time.RFC3339))
	}
	return stamped, nil
}

func uuidv7Time(id uuid.UUID) time.Time {
	var buf [8]byte
	copy(buf[2:], id[:6])
	return time.UnixMilli(int64(binary.BigEndian.Uint64(buf[:]))).UTC()
}
