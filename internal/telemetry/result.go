// ABOUTME: Tagged result of a resource read: JSON, text, image blob or error
// ABOUTME: Errors serialize as {"error": "<message>"} so reads never fault

package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind tags the variant held by a Result.
type Kind int

const (
	KindJSON Kind = iota
	KindText
	KindBlob
	KindError
)

// MIME types used by resources.
const (
	MIMEJSON = "application/json"
	MIMEText = "text/plain"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// Result is the outcome of reading one resource.
type Result struct {
	Kind     Kind
	MIMEType string
	// Text holds the serialized payload for every kind except KindBlob.
	Text string
	// Blob holds image bytes for KindBlob.
	Blob []byte
}

// OK serializes value as JSON. indent selects two-space indentation.
func OK(value any, indent bool) Result {
	text, err := encodeJSON(value, indent)
	if err != nil {
		return Err(err.Error())
	}
	return Result{Kind: KindJSON, MIMEType: MIMEJSON, Text: text}
}

// OKText returns s verbatim.
func OKText(s string) Result {
	return Result{Kind: KindText, MIMEType: MIMEText, Text: s}
}

// Blob returns binary content.
func Blob(data []byte, mimeType string) Result {
	return Result{Kind: KindBlob, MIMEType: mimeType, Blob: data}
}

// Err returns the error payload {"error": msg}.
func Err(msg string) Result {
	quoted, _ := encodeJSON(msg, false)
	return Result{Kind: KindError, MIMEType: MIMEJSON, Text: `{"error": ` + quoted + `}`}
}

// IsError reports whether r is an error payload.
func (r Result) IsError() bool {
	return r.Kind == KindError
}

func encodeJSON(value any, indent bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
