// Package record defines the sLS record model: free-form key/value
// documents carrying a small set of reserved attributes (identity,
// TTL, type, state) plus opaque payload.
package record

// Reserved key names as they appear on the wire (query string params,
// JSON body keys). Everything else is opaque payload.
const (
	KeyURI        = "record-uri"
	KeyTTL        = "record-ttl"
	KeyExpires    = "record-expires"
	KeyType       = "record-type"
	KeyState      = "record-state"
	KeyOperator   = "record-operator"
	KeySkip       = "record-skip"
	KeyMaxResults = "record-max-results"
	KeyClientUUID = "client-uuid"
)

// reservedPrefix marks keys as belonging to the sLS namespace. Keys
// under this prefix that aren't one of the constants above are still
// treated as match clauses (forward compatibility, spec §4.3).
const reservedPrefix = "record-"

// IsReservedPrefixed reports whether a key falls under the sLS
// namespace, recognized or not.
func IsReservedPrefixed(key string) bool {
	return len(key) > len(reservedPrefix) && key[:len(reservedPrefix)] == reservedPrefix
}

// IsRecognizedControl reports whether key is one of the controls the
// Query Engine special-cases (operator/skip/max-results), as opposed
// to an unrecognized reserved-prefixed key that should fall through
// to clause matching.
func IsRecognizedControl(key string) bool {
	switch key {
	case KeyOperator, KeySkip, KeyMaxResults:
		return true
	default:
		return false
	}
}
