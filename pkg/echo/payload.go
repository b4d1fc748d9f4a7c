package echo

import (
	"bytes"
	"encoding/binary"
	"time"
)

const (
	timeSliceLength = 8
	trackerLength   = 8

	// MinPayloadSize is the smallest payload able to carry timestamp and tracker
	MinPayloadSize = timeSliceLength + trackerLength
	// DefaultPayloadSize matches the 56 data bytes of the classic ping
	DefaultPayloadSize = 56
)

// NewPayload builds echo data: send timestamp, tracker and padding up to size.
func NewPayload(sent time.Time, tracker int64, size int) []byte {
	b := append(timeToBytes(sent), intToBytes(tracker)...)
	if remainSize := size - timeSliceLength - trackerLength; remainSize > 0 {
		b = append(b, bytes.Repeat([]byte{1}, remainSize)...)
	}
	return b
}

// ParsePayload extracts timestamp and tracker stored by NewPayload.
func ParsePayload(b []byte) (time.Time, int64, bool) {
	if len(b) < timeSliceLength+trackerLength {
		return time.Time{}, 0, false
	}
	return bytesToTime(b[:timeSliceLength]), bytesToInt(b[timeSliceLength:]), true
}

func bytesToTime(b []byte) time.Time {
	nsec := int64(binary.BigEndian.Uint64(b))
	return time.Unix(nsec/1000000000, nsec%1000000000)
}

func timeToBytes(t time.Time) []byte {
	b := make([]byte, timeSliceLength)
	binary.BigEndian.PutUint64(b, uint64(t.UnixNano()))
	return b
}

func bytesToInt(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func intToBytes(tracker int64) []byte {
	b := make([]byte, trackerLength)
	binary.BigEndian.PutUint64(b, uint64(tracker))
	return b
}
