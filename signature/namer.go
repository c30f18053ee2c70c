package signature

import (
	"strings"
	"sync"

	"github.com/jonwraymond/kerncache/cache"
)

// Delimiter joins argument tokens before digesting. Fixed, not
// configurable: changing it would change every derived name.
const Delimiter = "_"

// Namer converts (base name, argument tokens) pairs into canonical
// function identifiers of the form "<base>_<digest>".
//
// Contract:
// - Determinism: equal base names with case-insensitively equal token
//   sequences always yield byte-identical identifiers.
// - Concurrency: safe for concurrent use; the memoization cache is
//   guarded by an internal mutex held across the get-or-insert sequence.
type Namer struct {
	digest Digest

	mu    sync.Mutex
	names *cache.LRU[string, string]
}

// NewNamer creates a Namer memoizing up to capacity names.
// capacity <= 0 memoizes without bound. A nil digest defaults to MD5Digest.
func NewNamer(capacity int, digest Digest) *Namer {
	if digest == nil {
		digest = MD5Digest{}
	}
	return &Namer{
		digest: digest,
		names:  cache.NewLRU[string, string](capacity),
	}
}

// Name returns the canonical identifier for base applied to tokens.
//
// Tokens are joined with Delimiter and lower-cased before digesting, so
// token case at the call site never changes the result. An empty token
// sequence is defined: it digests the empty string.
//
// The memoization key includes the base name so distinct operations
// sharing an argument signature keep distinct cached entries.
func (n *Namer) Name(base string, tokens []string) string {
	joined := strings.ToLower(strings.Join(tokens, Delimiter))
	key := base + "\x00" + joined

	n.mu.Lock()
	defer n.mu.Unlock()

	if name, ok := n.names.Get(key); ok {
		return name
	}
	name := base + "_" + n.digest.Sum(joined)
	n.names.Put(key, name)
	return name
}

// Len returns the number of memoized names.
func (n *Namer) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.names.Len()
}
