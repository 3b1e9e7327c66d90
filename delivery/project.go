package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
)

// ProjectedBody is a best-effort, read-only projection of a delivery's
// response body for human-facing APIs, mirroring event.DecodedBody: a body
// that looks like JSON (see looksLikeJSON) and parses becomes a parsed
// value, otherwise the raw bytes are rendered as text, and an empty body
// projects as neither. A body that is valid JSON but neither declared as
// JSON nor opening with { or [ (a bare number, say) is rendered as text.
type ProjectedBody struct {
	// JSON holds the parsed value when the body is valid JSON, nil otherwise.
	JSON any `json:"json,omitempty"`

	// Text is the body rendered as a UTF-8 string, provided when JSON
	// parsing didn't apply or failed. Empty (and omitted) for an empty body.
	Text string `json:"text,omitempty"`
}

// ProjectResponseBody projects d.ResponseBody per SPEC_FULL §4.5: when the
// response Content-Type names JSON or the body opens with { or [, a body
// that parses becomes a value; otherwise it's treated as UTF-8 text, and an
// empty body yields a zero-value ProjectedBody (serializing as {} with
// both fields omitted — callers treat that as "no body").
func ProjectResponseBody(d *Delivery) ProjectedBody {
	body := d.ResponseBody
	if len(body) == 0 {
		return ProjectedBody{}
	}

	contentType := ""
	if d.ResponseHeaders != nil {
		contentType = d.ResponseHeaders.Get("Content-Type")
	}

	if looksLikeJSON(contentType, body) {
		var parsed any
		if json.Unmarshal(body, &parsed) == nil {
			return ProjectedBody{JSON: parsed}
		}
	}
	return ProjectedBody{Text: string(body)}
}

// looksLikeJSON mirrors event.looksLikeJSON: a declared JSON content type,
// or a body whose first non-whitespace byte opens an object or array.
func looksLikeJSON(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return true
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// ListChain walks the parent_delivery_id chain back to its root, returning
// attempts oldest-first (the root attempt, then each retry in order, ending
// at start). start itself is included.
func ListChain(ctx context.Context, store Store, start *Delivery) ([]*Delivery, error) {
	chain := []*Delivery{start}

	cur := start
	for cur.ParentDeliveryID != nil {
		parent, err := store.GetDelivery(ctx, *cur.ParentDeliveryID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		cur = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
