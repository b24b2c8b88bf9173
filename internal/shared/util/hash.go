package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerDir maps a caller identity to the directory its uploads live under, so
// guest IDs never appear in object keys.
func OwnerDir(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}
