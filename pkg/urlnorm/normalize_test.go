package urlnorm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("Should produce canonical forms", func(t *testing.T) {
		cases := []struct {
			raw      string
			expected string
		}{
			{"https://Example.com/some/path/", "https://example.com/some/path"},
			{"https://example.com?a=1&utm_source=foo&b=2", "https://example.com/?a=1&b=2"},
			{"http://a.com", "http://a.com/"},
			{"  http://A.COM  ", "http://a.com/"},
			{"http://x.com/", "http://x.com/"},
			{"http://x.com//", "http://x.com/"},
			{"http://x.com/a///b//c/", "http://x.com/a/b/c"},
			{"http://x.com:8080/p#frag", "http://x.com:8080/p"},
			{"http://x.com/p?", "http://x.com/p"},
			{"http://x.com/p?b=2&a=1&b=1", "http://x.com/p?a=1&b=2&b=1"},
			{"http://x.com/p?q=a+b&k=%2F", "http://x.com/p?k=%2F&q=a+b"},
		}
		for _, tc := range cases {
			got, err := Normalize(tc.raw)
			require.NoError(t, err, tc.raw)
			assert.Equal(t, tc.expected, got, tc.raw)
		}
	})

	t.Run("Should treat equivalent URLs as the same entry", func(t *testing.T) {
		a, err := Normalize("HTTP://Example.com/a//b/?utm_source=x&z=1&a=2")
		require.NoError(t, err)
		b, err := Normalize("http://example.com/a/b?a=2&z=1")
		require.NoError(t, err)
		assert.Equal(t, b, a)
	})

	t.Run("Should ignore a trailing slash except on the root path", func(t *testing.T) {
		a, err := Normalize("http://x.com/path/")
		require.NoError(t, err)
		b, err := Normalize("http://x.com/path")
		require.NoError(t, err)
		assert.Equal(t, b, a)

		root, err := Normalize("http://x.com/")
		require.NoError(t, err)
		assert.Equal(t, "http://x.com/", root)
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		inputs := []string{
			"HTTP://Example.com/a//b/?utm_source=x&z=1&a=2",
			"https://example.com/a b/?q=hello world&x=%41",
			"http://user:pw@Host.io:9000//deep//path/?z=&y=1#top",
			"http://x.com",
			"https://x.com/?a=1&a=0&A=2",
		}
		for _, in := range inputs {
			once, err := Normalize(in)
			require.NoError(t, err, in)
			twice, err := Normalize(once)
			require.NoError(t, err, once)
			assert.Equal(t, once, twice, in)
		}
	})

	t.Run("Should strip tracking parameters by case-insensitive prefix", func(t *testing.T) {
		got, err := Normalize("http://x.com/p?fbclid_abc=1&FBCLID=1&refresh=1&reference=2&Utm-Medium=m&gclid=z&keep=1")
		require.NoError(t, err)
		assert.Equal(t, "http://x.com/p?keep=1", got)
	})

	t.Run("Should sort keys byte-wise keeping relative order of equal keys", func(t *testing.T) {
		got, err := Normalize("http://x.com/?b=1&B=2&a=3&b=0")
		require.NoError(t, err)
		assert.Equal(t, "http://x.com/?B=2&a=3&b=1&b=0", got)
	})

	t.Run("Should reject inputs that are not absolute URLs", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "not a url", "example.com/path", "http://", "/relative/path", "http://x.com/?a=%zz"} {
			_, err := Normalize(raw)
			require.Error(t, err, raw)
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), raw)
		}
	})
}

func TestIsTrackingKey(t *testing.T) {
	t.Run("Should match configured prefixes only", func(t *testing.T) {
		assert.True(t, IsTrackingKey("utm_source"))
		assert.True(t, IsTrackingKey("UTM-campaign"))
		assert.True(t, IsTrackingKey("ref"))
		assert.True(t, IsTrackingKey("refresh"))
		assert.True(t, IsTrackingKey("gclid"))
		assert.False(t, IsTrackingKey("page"))
		assert.False(t, IsTrackingKey("xref"))
	})
}
