// Package transcript captures every outbound API call — request,
// response, timing — into a human-readable append-only log. It is a
// debugging artifact: the format is stable for grep, not for machines.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// separator closes every record block in the transcript file.
var separator = strings.Repeat("=", 50)

// Record captures one physical HTTP attempt and its outcome. A retried
// call produces multiple records, one per attempt; records are never
// mutated after being written.
type Record struct {
	// Timestamp is when the attempt was initiated (UTC).
	Timestamp time.Time

	// Endpoint is the full target URL including the api-version query.
	Endpoint string

	// Method is the HTTP method.
	Method string

	// RequestHeaders must already be redacted before the record is built.
	RequestHeaders http.Header

	// RequestBody is the raw request payload.
	RequestBody []byte

	// Status is the HTTP response status code, or 0 when the round trip
	// failed before a response arrived.
	Status int

	// ResponseHeaders are the (redacted) response headers, nil on failure.
	ResponseHeaders http.Header

	// ResponseBody is the raw response payload, nil on failure.
	ResponseBody []byte

	// Err describes a round-trip failure when no response was received.
	Err string

	// Duration is the wall-clock time of the attempt.
	Duration time.Duration
}

// Format renders the record as one delimited transcript block. Field
// order is fixed: timestamp, endpoint, method, headers, request body,
// then the response section, closed by the separator line.
func (r *Record) Format() string {
	var b strings.Builder

	b.WriteString("\n=== API REQUEST ===\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", r.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Endpoint: %s\n", r.Endpoint)
	fmt.Fprintf(&b, "Method: %s\n", r.Method)
	fmt.Fprintf(&b, "Headers: %s\n", formatHeaders(r.RequestHeaders))
	fmt.Fprintf(&b, "Request Body: %s\n", formatBody(r.RequestBody))

	b.WriteString("\n=== API RESPONSE ===\n")
	if r.Err != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.Err)
	} else {
		fmt.Fprintf(&b, "Status Code: %d\n", r.Status)
		fmt.Fprintf(&b, "Response Headers: %s\n", formatHeaders(r.ResponseHeaders))
		fmt.Fprintf(&b, "Response Body: %s\n", formatBody(r.ResponseBody))
	}
	fmt.Fprintf(&b, "Duration: %.3fs\n", r.Duration.Seconds())

	b.WriteString(separator)
	b.WriteString("\n")
	return b.String()
}

// formatHeaders renders headers as indented JSON with single-value
// headers flattened, matching what a reader expects from a wire capture.
func formatHeaders(h http.Header) string {
	if h == nil {
		return "{}"
	}
	flat := make(map[string]string, len(h))
	for name, values := range h {
		flat[name] = strings.Join(values, ", ")
	}
	out, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", flat)
	}
	return string(out)
}

// formatBody pretty-prints JSON payloads and passes everything else
// through verbatim.
func formatBody(body []byte) string {
	if len(body) == 0 {
		return "(empty)"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
