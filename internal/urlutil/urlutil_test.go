package urlutil_test

import (
	"testing"

	"phishgate/internal/urlutil"
)

func TestHost(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/login", "example.com"},
		{"http://example.com:8080/path?q=1", "example.com"},
		{"https://sub.bad.example/login2", "sub.bad.example"},
		{"https://bücher.example/", "xn--bcher-kva.example"},
		{"not a url at all", ""},
		{"", ""},
		{"about:blank", ""},
	}
	for _, tc := range cases {
		if got := urlutil.Host(tc.in); got != tc.want {
			t.Errorf("Host(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
