package rootdir

import (
	"fmt"
	"os"
	"strings"
)

// ExpandEnvStrict expands ${VAR} references in a root override value.
//
// Only the braced form is recognized; a bare $WORD passes through
// untouched. A reference to an unset variable is an error rather than
// an empty expansion, so a typo in the override cannot silently point
// the cache at the filesystem root. "$$" emits a literal "$".
func ExpandEnvStrict(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '$' {
			b.WriteByte('$')
			i += 2
			continue
		}
		if i+1 >= len(s) || s[i+1] != '{' {
			b.WriteByte('$')
			i++
			continue
		}
		end := strings.IndexByte(s[i+2:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated variable reference in %q", s)
		}
		name := s[i+2 : i+2+end]
		val, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("reference to unset variable %s", name)
		}
		b.WriteString(val)
		i += 2 + end + 1
	}
	return b.String(), nil
}
