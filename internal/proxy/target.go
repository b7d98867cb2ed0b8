package proxy

import (
	"net/url"
	"strings"

	"github.com/alarino/dictweb/internal/text"
)

// APIPrefix is the path prefix shared by the gateway and the backend.
const APIPrefix = "/api"

// EscapeSegment percent-encodes a single path segment, so a segment never
// introduces a path separator or query.
func EscapeSegment(s string) string {
	return text.EscapeComponent(s)
}

// SplitPath turns an escaped path (the part after the /api prefix) into
// decoded segments. Empty segments are dropped.
func SplitPath(escaped string) []string {
	parts := strings.Split(escaped, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		decoded, err := url.PathUnescape(part)
		if err != nil {
			decoded = part
		}
		segments = append(segments, decoded)
	}
	return segments
}

// SegmentsFromRequestPath strips the /api prefix from an escaped request
// path and splits the remainder. A path outside the prefix yields nil.
func SegmentsFromRequestPath(escaped string) []string {
	if escaped != APIPrefix && !strings.HasPrefix(escaped, APIPrefix+"/") {
		return nil
	}
	return SplitPath(strings.TrimPrefix(escaped, APIPrefix))
}

// TargetURL builds {base}/api/{seg1}/{seg2}...?{rawQuery}. The query is
// appended exactly as received.
func TargetURL(base string, segments []string, rawQuery string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = EscapeSegment(seg)
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(base, "/"))
	sb.WriteString(APIPrefix)
	sb.WriteByte('/')
	sb.WriteString(strings.Join(escaped, "/"))
	if rawQuery != "" {
		sb.WriteByte('?')
		sb.WriteString(rawQuery)
	}
	return sb.String()
}
