package compiler

import (
	"strconv"
	"unicode/utf16"
)

// StableHash computes a deterministic, order-sensitive rolling hash over
// the string's UTF-16 code units, rendered base-36 and non-negative.
//
// It is not cryptographic and collisions are accepted: the derived
// idempotency keys are dedup hints for the execution backend, not
// enforced-unique identifiers. The load-bearing guarantee is that equal
// inputs always hash equal, so a re-save of an unchanged graph never
// regenerates a different key.
func StableHash(s string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
