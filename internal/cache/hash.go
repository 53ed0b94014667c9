package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashLen is the length of a content hash in hex characters.
const HashLen = 16

// Hash returns a short deterministic digest of v: the first 8 bytes of the
// SHA-256 of its serialized form, hex encoded. Strings and byte slices are
// hashed as is; everything else is JSON encoded first.
func Hash(v any) string {
	sum := sha256.Sum256(serialize(v))
	return hex.EncodeToString(sum[:HashLen/2])
}

// EstimateSize returns the size in bytes of v's serialized form.
func EstimateSize(v any) int64 {
	return int64(len(serialize(v)))
}

func serialize(v any) []byte {
	switch x := v.(type) {
	case []byte:
		return x
	case string:
		return []byte(x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf("%#v", v))
	}
	return data
}
