package blob

import "testing"

func TestContentTypeForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"outputs/7f3a.html", "text/html; charset=utf-8"},
		{"outputs/7F3A.HTML", "text/html; charset=utf-8"},
		{"artifacts/About", "text/plain; charset=utf-8"},
		{"artifacts/jd.txt", "text/plain; charset=utf-8"},
	}
	for _, c := range cases {
		if got := contentTypeFor(c.path); got != c.want {
			t.Fatalf("contentTypeFor(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}
