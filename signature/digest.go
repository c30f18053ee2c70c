package signature

import (
	"crypto/md5" // #nosec G501 -- collision resistance, not secrecy, is the requirement here.
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Digest computes a deterministic content digest rendered as lowercase hex.
//
// Contract:
// - Determinism: the same input must produce the same output across calls
//   and across process restarts.
// - Concurrency: implementations must be safe for concurrent use.
type Digest interface {
	// Sum returns the lowercase hex digest of s.
	Sum(s string) string
}

// MD5Digest is the default digest: a 128-bit MD5 rendered as 32 hex
// characters. Cryptographic strength is not required for kernel naming,
// only low collision probability.
type MD5Digest struct{}

// Sum returns the MD5 digest of s as lowercase hex.
func (MD5Digest) Sum(s string) string {
	sum := md5.Sum([]byte(s)) // #nosec G401 -- see G501 note above.
	return hex.EncodeToString(sum[:])
}

// XXDigest is a 64-bit xxHash digest rendered as 16 hex characters.
// Faster than MD5 with a wider collision window; suitable when the
// caller controls the token vocabulary.
type XXDigest struct{}

// Sum returns the xxHash64 digest of s as lowercase hex.
func (XXDigest) Sum(s string) string {
	v := xxhash.Sum64String(s)
	out := strconv.FormatUint(v, 16)
	// Pad to the full 16 characters so names keep a fixed width.
	const width = 16
	for len(out) < width {
		out = "0" + out
	}
	return out
}

// Ensure both digests implement Digest
var (
	_ Digest = MD5Digest{}
	_ Digest = XXDigest{}
)
