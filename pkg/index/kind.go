package index

import (
	"strings"

	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// Kind tells whether an index describes a local or a remote repository.
type Kind int

const (
	// Local is a repository on the local filesystem.
	Local Kind = iota
	// Remote is a repository reachable over a URL.
	Remote
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// ParseKind parses the textual form produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return Local, nil
	case "remote":
		return Remote, nil
	default:
		return 0, errutils.ErrUnknownKindWithValue(s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k != Local && k != Remote {
		return nil, errutils.ErrUnknownKindWithValue(k.String())
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
