package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Document ids are ULIDs: 26-character Crockford Base32 strings with a
// millisecond timestamp prefix, so ids sort by creation time in logs.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewDocID returns a fresh ULID. Ids generated within the same
// millisecond stay unique through an embedded sequence counter.
func NewDocID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	// 48-bit big-endian timestamp in the first 6 bytes.
	b[0] = byte(ts >> 40)
	b[1] = byte(ts >> 32)
	b[2] = byte(ts >> 24)
	b[3] = byte(ts >> 16)
	b[4] = byte(ts >> 8)
	b[5] = byte(ts)
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encodeCrockford(b)
}

// encodeCrockford renders 128 bits as 26 base32 characters. Two zero
// bits pad the front so the total splits evenly into 5-bit groups.
func encodeCrockford(b [16]byte) string {
	var out [26]byte
	acc := uint32(0)
	nbits := 2
	pos := 0
	for _, by := range b {
		acc = acc<<8 | uint32(by)
		nbits += 8
		for nbits >= 5 {
			out[pos] = crockford[(acc>>(nbits-5))&31]
			pos++
			nbits -= 5
		}
		acc &= 1<<nbits - 1
	}
	return string(out[:])
}
