package store

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// termHash is the 128-bit bucket key of an interned term
type termHash [16]byte

// hashKey computes the xxh3 128-bit hash of a term key. Fields are
// length-prefixed so that distinct keys never encode to the same bytes.
func hashKey(key TermKey) termHash {
	buf := make([]byte, 0, 2+4*3+len(key.Value)+len(key.Datatype)+len(key.Language))
	buf = append(buf, byte(key.Kind))
	for _, field := range []string{key.Value, key.Datatype, key.Language} {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(field))) // #nosec G115 - term fields are far below 4 GiB
		buf = append(buf, field...)
	}
	if key.HasLanguage {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	hash := xxh3.Hash128(buf)
	var result termHash
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}
