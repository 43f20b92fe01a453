package accesslog

import "strings"

// ExtractKey returns the application a request URL belongs to: its first path
// segment without leading slashes or query string. "/foo/bar?x=1" gives "foo".
func ExtractKey(url string) string {
	key := strings.TrimLeft(url, "/")
	if i := strings.IndexByte(key, '/'); i >= 0 {
		key = key[:i]
	}
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	return key
}
