package engine

import (
	"crypto/rand"
	"encoding/hex"
)

type Seeds struct {
	Server string `json:"server"` // ASCII; do NOT hex-decode
	Client string `json:"client"`
}

// Empty reports whether no server seed was supplied.
func (s Seeds) Empty() bool {
	return s.Server == ""
}

// RandomSeeds draws a fresh server and client seed from crypto/rand.
func RandomSeeds() Seeds {
	return Seeds{Server: randomHex(32), Client: randomHex(8)}
}

func randomHex(n int) string {
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
