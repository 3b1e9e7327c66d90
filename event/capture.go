package event

import (
	"net/http"
	"strings"
	"time"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// CaptureInput holds everything needed to build an Event from one inbound
// request. All fields are assumed pre-extracted by the transport layer
// (the api package) so this package never touches *http.Request directly —
// capture is a pure, transport-agnostic operation.
type CaptureInput struct {
	EndpointID  id.ID
	Method      string
	OriginalURL string
	SourceURL   string
	Path        string
	Query       map[string][]string
	Headers     http.Header
	Body        []byte
	SourceIP    string
	UserAgent   string
}

// Capture builds an Event from a CaptureInput. The returned Event has a
// freshly minted id and ReceivedAt timestamp; Seq is left zero for the
// store to assign atomically at insert time.
//
// The invariant this function must never violate: Body is stored exactly
// as supplied, with no parsing or re-encoding, and SizeBytes always equals
// len(Body).
func Capture(in CaptureInput) *Event {
	return &Event{
		Entity:      entity.New(),
		ID:          id.NewEventID(),
		EndpointID:  in.EndpointID,
		ReceivedAt:  time.Now().UTC(),
		Method:      strings.ToUpper(in.Method),
		OriginalURL: in.OriginalURL,
		SourceURL:   in.SourceURL,
		Path:        in.Path,
		Query:       in.Query,
		Headers:     in.Headers,
		Body:        in.Body,
		SourceIP:    in.SourceIP,
		UserAgent:   in.UserAgent,
		SizeBytes:   len(in.Body),
	}
}
