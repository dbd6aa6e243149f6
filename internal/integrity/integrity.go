// Package integrity provides tamper-evident hashing and Merkle tree construction
// for the delegation audit trail. All functions are pure and deterministic.
package integrity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ashita-ai/hospitalops/internal/model"
)

const hashPrefix = "v1:"

// RecordHash produces a versioned SHA-256 hex digest of a delegation record.
// Each field is encoded as a 4-byte big-endian length prefix followed by the
// field bytes, so free-text request fields cannot forge field boundaries.
func RecordHash(rec model.ControlLog) string {
	h := sha256.New()
	writeField := func(s string) {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s))) //nolint:gosec // request text is bounded by MaxChatTextLen
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}
	writeField(strconv.FormatInt(rec.LogID, 10))
	writeField(rec.Timestamp.UTC().Format(time.RFC3339Nano))
	writeField(rec.UserRequestText)
	writeField(string(rec.DelegatedAgent))
	writeField(rec.TransactionID)
	writeField(strconv.FormatBool(rec.DelegationSuccess))
	return hashPrefix + hex.EncodeToString(h.Sum(nil))
}

// VerifyRecordHash checks whether a stored hash matches the record.
func VerifyRecordHash(stored string, rec model.ControlLog) bool {
	if !strings.HasPrefix(stored, hashPrefix) {
		return false
	}
	return stored == RecordHash(rec)
}

// hashPair produces SHA-256(0x01 || a || b) as a hex string.
// The 0x01 prefix separates internal nodes from leaves (RFC 6962).
func hashPair(a, b string) string {
	h := sha256.New()
	h.Write([]byte{0x01})
	h.Write([]byte(a))
	h.Write([]byte(b))
	return hex.EncodeToString(h.Sum(nil))
}

// BuildMerkleRoot constructs a Merkle tree from leaf hashes and returns the root.
// Leaves are used in the order given; for the audit trail that is storage order,
// so reordering records changes the root.
// If leaves is empty, returns an empty string.
// If leaves has one element, the root is that element.
// Odd-length levels hash the last node with itself.
func BuildMerkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return ""
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	level := make([]string, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		var next []string
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}

	return level[0]
}

// TrailRoot hashes every record and returns the Merkle root of the trail.
func TrailRoot(recs []model.ControlLog) string {
	leaves := make([]string, len(recs))
	for i, r := range recs {
		leaves[i] = RecordHash(r)
	}
	return BuildMerkleRoot(leaves)
}
