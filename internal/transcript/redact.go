package transcript

import (
	"net/http"
	"strings"
)

// Placeholder replaces secret header values in recorded transcripts.
// Redaction is irreversible: the original value is never stored.
const Placeholder = "[REDACTED]"

// sensitiveHeaders are header names (lowercase) whose values must never
// reach the transcript file. Azure OpenAI authenticates with "api-key";
// the others cover proxies and alternative auth schemes.
var sensitiveHeaders = map[string]struct{}{
	"api-key":       {},
	"authorization": {},
	"x-api-key":     {},
}

// RedactHeaders returns a copy of h with every sensitive header value
// replaced by [Placeholder]. All other headers pass through unchanged.
// The input is never modified. Redacting an already-redacted mapping is
// a no-op, so callers may apply it defensively.
func RedactHeaders(h http.Header) http.Header {
	if h == nil {
		return nil
	}

	out := make(http.Header, len(h))
	for name, values := range h {
		if _, sensitive := sensitiveHeaders[strings.ToLower(name)]; sensitive {
			out[name] = []string{Placeholder}
			continue
		}
		copied := make([]string, len(values))
		copy(copied, values)
		out[name] = copied
	}
	return out
}
