package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
)

// ByteGenerator streams HMAC-SHA256 bytes keyed by the server seed.
// Each 32-byte round hashes "clientSeed:nonce:round".
type ByteGenerator struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a byte generator positioned at cursor.
func NewByteGenerator(serverSeed, clientSeed string, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed:   serverSeed,
		clientSeed:   clientSeed,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	bg.generateRound()
	return bg
}

// Next returns the next byte from the generator
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextUint64 reads 8 bytes big-endian.
func (bg *ByteGenerator) NextUint64() uint64 {
	var b [8]byte
	for i := range b {
		b[i] = bg.Next()
	}
	return binary.BigEndian.Uint64(b[:])
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	message := fmt.Sprintf("%s:%d:%d", bg.clientSeed, bg.nonce, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

// Source adapts a ByteGenerator to rand.Source so shuffles can be replayed
// from their seeds.
type Source struct {
	bg *ByteGenerator
}

var _ rand.Source = (*Source)(nil)

// NewSource returns a Source positioned at cursor 0 for the given nonce.
func NewSource(seeds Seeds, nonce uint64) *Source {
	return &Source{bg: NewByteGenerator(seeds.Server, seeds.Client, nonce, 0)}
}

// Uint64 implements rand.Source.
func (s *Source) Uint64() uint64 {
	return s.bg.NextUint64()
}

// NewRand wraps NewSource in a *rand.Rand.
func NewRand(seeds Seeds, nonce uint64) *rand.Rand {
	return rand.New(NewSource(seeds, nonce))
}

// HashSeed returns the hex SHA-256 of a seed, or "" for an empty seed.
func HashSeed(seed string) string {
	if seed == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(hash[:])
}
