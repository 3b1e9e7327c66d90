package event

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"
)

// DecodedBody is a best-effort, read-only projection of an event's raw body
// for human-facing APIs. It is never used for anything the delivery
// pipeline depends on — the stored Body bytes remain the source of truth.
type DecodedBody struct {
	// ContentEncoding is the encoding DecodeBody attempted to reverse, if any.
	ContentEncoding string `json:"content_encoding,omitempty"`

	// Decompressed holds the body after reversing Content-Encoding. Equal to
	// the raw body when no recognized encoding was present.
	Decompressed []byte `json:"-"`

	// JSON holds the parsed value when Decompressed is valid JSON, nil otherwise.
	JSON any `json:"json,omitempty"`

	// Text is Decompressed rendered as a string, provided for display when
	// JSON parsing fails.
	Text string `json:"text,omitempty"`
}

// DecodeBody reverses Content-Encoding (gzip or deflate) on evt.Body and,
// when Content-Type or the body's first byte indicates JSON, parses it.
// Decoding failures are not errors from the caller's point of view:
// DecodeBody always returns a usable projection, falling back to the raw
// bytes as text.
func DecodeBody(evt *Event) DecodedBody {
	encoding := evt.Headers.Get("Content-Encoding")
	contentType := evt.Headers.Get("Content-Type")
	raw := evt.Body

	decompressed, err := decompress(encoding, raw)
	if err != nil {
		decompressed = raw
	}

	out := DecodedBody{
		ContentEncoding: encoding,
		Decompressed:    decompressed,
		Text:            string(decompressed),
	}

	if looksLikeJSON(contentType, decompressed) {
		var parsed any
		if json.Unmarshal(decompressed, &parsed) == nil {
			out.JSON = parsed
			out.Text = ""
		}
	}
	return out
}

// looksLikeJSON reports whether body is worth attempting to parse as JSON:
// either the declared Content-Type says so, or the first non-whitespace
// byte opens an object or array. A bare "42" sent as text/plain is left as
// text rather than misreported as a parsed JSON number.
func looksLikeJSON(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return true
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func decompress(encoding string, body []byte) ([]byte, error) {
	switch encoding {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return io.ReadAll(r)
	case "br":
		// No brotli decoder is available anywhere in this project's
		// dependency set; br bodies pass through undecoded like any other
		// unrecognized encoding rather than being silently mishandled.
		return body, nil
	default:
		return body, nil
	}
}
