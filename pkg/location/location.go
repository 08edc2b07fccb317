// Package location canonicalizes user-supplied repository paths and URLs.
package location

import (
	"strings"
)

// Normalize turns a raw path or URL into the key used to decide whether two
// locations denote the same repository. It trims surrounding whitespace,
// converts backslashes to forward slashes and strips trailing slashes.
// No filesystem or network access is performed.
func Normalize(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.ReplaceAll(key, `\`, "/")
	return strings.TrimRight(key, "/")
}

// Same reports whether a and b normalize to the same key.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// IsRemote reports whether the normalized location carries a URL scheme.
func IsRemote(raw string) bool {
	key := Normalize(raw)
	idx := strings.Index(key, "://")
	if idx <= 0 {
		return false
	}
	for _, r := range key[:idx] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// Contains reports whether path equals root or lies below it. Both values
// are normalized first and the comparison respects path segments, so
// "/repo" does not contain "/repository".
func Contains(root, path string) bool {
	r := Normalize(root)
	p := Normalize(path)
	if r == p {
		return true
	}
	if r == "" {
		return false
	}
	return strings.HasPrefix(p, r+"/")
}
