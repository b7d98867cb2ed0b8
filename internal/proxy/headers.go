package proxy

import (
	"net/http"
	"strings"
)

// hopHeaders are stripped in both directions, compared case-insensitively.
var hopHeaders = map[string]struct{}{
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailer":             {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"host":                {},
}

// IsHopHeader reports whether name is one of the headers that must not
// cross the proxy boundary.
func IsHopHeader(name string) bool {
	_, ok := hopHeaders[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// FilterHeaders returns a copy of src without hop-by-hop headers.
// Duplicate values keep their order.
func FilterHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	copyHeaders(dst, src)
	return dst
}

// copyHeaders appends every non hop-by-hop value of src to dst.
func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		if IsHopHeader(name) {
			continue
		}
		for _, v := range values {
			dst[name] = append(dst[name], v)
		}
	}
}
