package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain path", raw: "dir/foo", want: "dir/foo"},
		{name: "backslashes", raw: `dir\foo`, want: "dir/foo"},
		{name: "trailing backslash", raw: `dir\foo\`, want: "dir/foo"},
		{name: "multiple trailing slashes", raw: "dir/foo///", want: "dir/foo"},
		{name: "url with backslashes", raw: `http://foo\bar\baz`, want: "http://foo/bar/baz"},
		{name: "url with whitespace and trailing backslashes", raw: `  http://foo\bar\\  `, want: "http://foo/bar"},
		{name: "empty", raw: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestSame(t *testing.T) {
	assert.True(t, Same("dir/foo", `dir\foo\`))
	assert.True(t, Same("http://foo/bar", `  http://foo\bar\\  `))
	assert.False(t, Same("http://foo/bar", `http://foo\bar\baz`))
	assert.False(t, Same("dir/foo", "dir/bar"))
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "https://repo.example.org/maven2", want: true},
		{raw: `file:\\\tmp\repo`, want: true},
		{raw: "/home/user/.m2/repository", want: false},
		{raw: `C:\Users\me\.m2`, want: false},
		{raw: "://missing-scheme", want: false},
		{raw: "bad scheme://x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRemote(tt.raw))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("/repo", "/repo"))
	assert.True(t, Contains("/repo", "/repo/org/example"))
	assert.True(t, Contains(`C:\m2\repository`, `C:\m2\repository\org\x`))
	assert.False(t, Contains("/repo", "/repository"))
	assert.False(t, Contains("/repo/org", "/repo"))
	assert.False(t, Contains("", "/repo"))
}
