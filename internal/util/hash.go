package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex identifies uploaded sequence files in logs and responses.
func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}
