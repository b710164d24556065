package sprout

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Hash computes the content hash of a seed's key/value payload: the
// SHA-256 of each key (as UTF-8) followed by its raw value bytes, keys
// visited in ascending order so the result is independent of map
// iteration order. An empty payload hashes to the empty string, which
// doubles as the sentinel for "this resource carries no seed-hash
// annotation" elsewhere in this package.
func Hash(payload map[string][]byte) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write(payload[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
