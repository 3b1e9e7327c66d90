package postgres

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/grove"

	"github.com/hookfreight/hookfreight/app"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// --- App models ---

type appModel struct {
	grove.BaseModel `grove:"table:hookfreight_apps"`

	ID        string    `grove:"id,pk"`
	Name      string    `grove:"name"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toAppModel(a *app.App) *appModel {
	return &appModel{
		ID:        a.ID.String(),
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAppModel(m *appModel) (*app.App, error) {
	appID, err := id.ParseWithPrefix(m.ID, id.PrefixApp)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse app id %q: %w", m.ID, err)
	}
	return &app.App{
		Entity:    entity.Entity{CreatedAt: m.CreatedAt},
		ID:        appID,
		Name:      m.Name,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// --- Endpoint models ---

type endpointModel struct {
	grove.BaseModel `grove:"table:hookfreight_endpoints"`

	ID                string    `grove:"id,pk"`
	AppID             string    `grove:"app_id"`
	HookToken         string    `grove:"hook_token,unique"`
	ForwardURL        string    `grove:"forward_url"`
	ForwardingEnabled bool      `grove:"forwarding_enabled"`
	AuthHeaderName    string    `grove:"auth_header_name"`
	AuthHeaderValue   string    `grove:"auth_header_value"`
	HTTPTimeoutMs     int       `grove:"http_timeout_ms"`
	IsActive          bool      `grove:"is_active"`
	CreatedAt         time.Time `grove:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"`
}

func toEndpointModel(ep *endpoint.Endpoint) *endpointModel {
	m := &endpointModel{
		ID:                ep.ID.String(),
		AppID:             ep.AppID.String(),
		HookToken:         ep.HookToken,
		ForwardURL:        ep.ForwardURL,
		ForwardingEnabled: ep.ForwardingEnabled,
		HTTPTimeoutMs:     ep.HTTPTimeoutMs,
		IsActive:          ep.IsActive,
		CreatedAt:         ep.CreatedAt,
		UpdatedAt:         ep.UpdatedAt,
	}
	if ep.Authentication != nil {
		m.AuthHeaderName = ep.Authentication.HeaderName
		m.AuthHeaderValue = ep.Authentication.HeaderValue
	}
	return m
}

func fromEndpointModel(m *endpointModel) (*endpoint.Endpoint, error) {
	epID, err := id.ParseWithPrefix(m.ID, id.PrefixEndpoint)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse endpoint id %q: %w", m.ID, err)
	}
	appID, err := id.ParseWithPrefix(m.AppID, id.PrefixApp)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse app id %q: %w", m.AppID, err)
	}
	ep := &endpoint.Endpoint{
		Entity:            entity.Entity{CreatedAt: m.CreatedAt},
		ID:                epID,
		AppID:             appID,
		HookToken:         m.HookToken,
		ForwardURL:        m.ForwardURL,
		ForwardingEnabled: m.ForwardingEnabled,
		HTTPTimeoutMs:     m.HTTPTimeoutMs,
		IsActive:          m.IsActive,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.AuthHeaderName != "" {
		ep.Authentication = &endpoint.Authentication{
			HeaderName:  m.AuthHeaderName,
			HeaderValue: m.AuthHeaderValue,
		}
	}
	return ep, nil
}

// --- Event models ---

type eventModel struct {
	grove.BaseModel `grove:"table:hookfreight_events"`

	ID          string          `grove:"id,pk"`
	Seq         int64           `grove:"seq"`
	EndpointID  string          `grove:"endpoint_id"`
	ReceivedAt  time.Time       `grove:"received_at"`
	Method      string          `grove:"method"`
	OriginalURL string          `grove:"original_url"`
	SourceURL   string          `grove:"source_url"`
	Path        string          `grove:"path"`
	Query       json.RawMessage `grove:"query,type:jsonb"`
	Headers     json.RawMessage `grove:"headers,type:jsonb"`
	Body        []byte          `grove:"body"`
	SourceIP    string          `grove:"source_ip"`
	UserAgent   string          `grove:"user_agent"`
	SizeBytes   int             `grove:"size_bytes"`
	CreatedAt   time.Time       `grove:"created_at"`
}

func toEventModel(evt *event.Event) (*eventModel, error) {
	query, err := json.Marshal(evt.Query)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: marshal query: %w", err)
	}
	headers, err := json.Marshal(evt.Headers)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: marshal headers: %w", err)
	}
	return &eventModel{
		ID:          evt.ID.String(),
		Seq:         evt.Seq,
		EndpointID:  evt.EndpointID.String(),
		ReceivedAt:  evt.ReceivedAt,
		Method:      evt.Method,
		OriginalURL: evt.OriginalURL,
		SourceURL:   evt.SourceURL,
		Path:        evt.Path,
		Query:       query,
		Headers:     headers,
		Body:        evt.Body,
		SourceIP:    evt.SourceIP,
		UserAgent:   evt.UserAgent,
		SizeBytes:   evt.SizeBytes,
		CreatedAt:   evt.CreatedAt,
	}, nil
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseWithPrefix(m.ID, id.PrefixEvent)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse event id %q: %w", m.ID, err)
	}
	epID, err := id.ParseWithPrefix(m.EndpointID, id.PrefixEndpoint)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse endpoint id %q: %w", m.EndpointID, err)
	}
	var query map[string][]string
	if len(m.Query) > 0 {
		if err := json.Unmarshal(m.Query, &query); err != nil {
			return nil, fmt.Errorf("hookfreight/postgres: unmarshal query: %w", err)
		}
	}
	var headers http.Header
	if len(m.Headers) > 0 {
		if err := json.Unmarshal(m.Headers, &headers); err != nil {
			return nil, fmt.Errorf("hookfreight/postgres: unmarshal headers: %w", err)
		}
	}
	return &event.Event{
		Entity:      entity.Entity{CreatedAt: m.CreatedAt},
		ID:          evtID,
		Seq:         m.Seq,
		EndpointID:  epID,
		ReceivedAt:  m.ReceivedAt,
		Method:      m.Method,
		OriginalURL: m.OriginalURL,
		SourceURL:   m.SourceURL,
		Path:        m.Path,
		Query:       query,
		Headers:     headers,
		Body:        m.Body,
		SourceIP:    m.SourceIP,
		UserAgent:   m.UserAgent,
		SizeBytes:   m.SizeBytes,
	}, nil
}

// --- Delivery models ---

type deliveryModel struct {
	grove.BaseModel `grove:"table:hookfreight_deliveries"`

	ID               string          `grove:"id,pk"`
	EventID          string          `grove:"event_id"`
	EndpointID       string          `grove:"endpoint_id"`
	ParentDeliveryID *string         `grove:"parent_delivery_id"`
	Status           string          `grove:"status"`
	DestinationURL   string          `grove:"destination_url"`
	ResponseStatus   *int            `grove:"response_status"`
	ResponseHeaders  json.RawMessage `grove:"response_headers,type:jsonb"`
	ResponseBody     []byte          `grove:"response_body"`
	DurationMs       int             `grove:"duration_ms"`
	ErrorMessage     string          `grove:"error_message"`
	CreatedAt        time.Time       `grove:"created_at"`
}

func toDeliveryModel(d *delivery.Delivery) (*deliveryModel, error) {
	m := &deliveryModel{
		ID:             d.ID.String(),
		EventID:        d.EventID.String(),
		EndpointID:     d.EndpointID.String(),
		Status:         string(d.Status),
		DestinationURL: d.DestinationURL,
		ResponseStatus: d.ResponseStatus,
		ResponseBody:   d.ResponseBody,
		DurationMs:     d.DurationMs,
		ErrorMessage:   d.ErrorMessage,
		CreatedAt:      d.CreatedAt,
	}
	if d.ParentDeliveryID != nil {
		parent := d.ParentDeliveryID.String()
		m.ParentDeliveryID = &parent
	}
	if d.ResponseHeaders != nil {
		headers, err := json.Marshal(d.ResponseHeaders)
		if err != nil {
			return nil, fmt.Errorf("hookfreight/postgres: marshal response headers: %w", err)
		}
		m.ResponseHeaders = headers
	}
	return m, nil
}

func fromDeliveryModel(m *deliveryModel) (*delivery.Delivery, error) {
	delID, err := id.ParseWithPrefix(m.ID, id.PrefixDelivery)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse delivery id %q: %w", m.ID, err)
	}
	evtID, err := id.ParseWithPrefix(m.EventID, id.PrefixEvent)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse event id %q: %w", m.EventID, err)
	}
	epID, err := id.ParseWithPrefix(m.EndpointID, id.PrefixEndpoint)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/postgres: parse endpoint id %q: %w", m.EndpointID, err)
	}
	d := &delivery.Delivery{
		Entity:         entity.Entity{CreatedAt: m.CreatedAt},
		ID:             delID,
		EventID:        evtID,
		EndpointID:     epID,
		Status:         delivery.Status(m.Status),
		DestinationURL: m.DestinationURL,
		ResponseStatus: m.ResponseStatus,
		ResponseBody:   m.ResponseBody,
		DurationMs:     m.DurationMs,
		ErrorMessage:   m.ErrorMessage,
	}
	if m.ParentDeliveryID != nil {
		parent, err := id.ParseWithPrefix(*m.ParentDeliveryID, id.PrefixDelivery)
		if err != nil {
			return nil, fmt.Errorf("hookfreight/postgres: parse parent delivery id %q: %w", *m.ParentDeliveryID, err)
		}
		d.ParentDeliveryID = &parent
	}
	if len(m.ResponseHeaders) > 0 {
		var headers http.Header
		if err := json.Unmarshal(m.ResponseHeaders, &headers); err != nil {
			return nil, fmt.Errorf("hookfreight/postgres: unmarshal response headers: %w", err)
		}
		d.ResponseHeaders = headers
	}
	return d, nil
}
