package scoring

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// NoOwnerColorKey is the fixed color key for nodes with no owner.
const NoOwnerColorKey = "94a3b8"

// queryHashLen is the hex-prefix length of a query hash.
const queryHashLen = 16

// sha1Hex returns the full lowercase hex SHA-1 of s.
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// normalize lower-cases and trims a name before hashing so that the hash is
// case- and whitespace-insensitive.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ---------------------------------------------------------------------------
// Color keys
// ---------------------------------------------------------------------------

// ColorKey derives a deterministic 6-hex-char color key from an owner name.
// An empty or whitespace-only owner maps to NoOwnerColorKey.
func ColorKey(ownerName string) string {
	name := normalize(ownerName)
	if name == "" {
		return NoOwnerColorKey
	}
	return sha1Hex(name)[:6]
}

// ---------------------------------------------------------------------------
// Synthetic node IDs
// ---------------------------------------------------------------------------

// DepID returns the stable synthetic node ID for a dependency name, so that
// identical dependency values map to the same node across queries.
func DepID(name string) string {
	return "dep:" + sha1Hex(normalize(name))
}

// RuntimeID returns the stable synthetic node ID for a runtime locator.
func RuntimeID(runtimeType string) string {
	return "rt:" + sha1Hex(normalize(runtimeType))
}

// SoftwareID returns the node ID for a service, prefixing its inventory ID.
func SoftwareID(serviceID string) string {
	return "svc:" + strings.TrimSpace(serviceID)
}

// ---------------------------------------------------------------------------
// Query hash
// ---------------------------------------------------------------------------

// QueryHash computes the stable hash of a normalized query tuple. Identical
// tuples always yield identical hashes; the value doubles as the response
// cache key and the layout PRNG seed, which is what keeps both cache layers
// correct.
func QueryHash(organizationID, focusKind, focusID string, hops int) string {
	key := strings.TrimSpace(organizationID) + "|" +
		normalize(focusKind) + "|" +
		strings.TrimSpace(focusID) + "|" +
		strconv.Itoa(hops)
	return sha1Hex(key)[:queryHashLen]
}
