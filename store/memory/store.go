// Package memory provides an in-memory store.Store implementation for
// tests and the single-node quick-start path. Nothing here survives a
// process restart.
package memory

import (
	"context"
	"sort"
	"sync"

	hookfreight "github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/app"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/id"
	relaystore "github.com/hookfreight/hookfreight/store"
)

var _ relaystore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	apps             map[string]*app.App
	endpoints        map[string]*endpoint.Endpoint
	endpointsByToken map[string]*endpoint.Endpoint
	events           map[string]*event.Event
	eventsByEndpoint map[string][]*event.Event
	deliveries       map[string]*delivery.Delivery
	deliveriesByKey  map[string]bool // (event_id, parent_delivery_id) uniqueness
	nextSeq          int64

	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		apps:             make(map[string]*app.App),
		endpoints:        make(map[string]*endpoint.Endpoint),
		endpointsByToken: make(map[string]*endpoint.Endpoint),
		events:           make(map[string]*event.Event),
		eventsByEndpoint: make(map[string][]*event.Event),
		deliveries:       make(map[string]*delivery.Delivery),
		deliveriesByKey:  make(map[string]bool),
	}
}

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return hookfreight.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ── App ──────────────────────────────────────────────

func (s *Store) CreateApp(_ context.Context, a *app.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[a.ID.String()] = a
	return nil
}

func (s *Store) GetApp(_ context.Context, appID id.ID) (*app.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[appID.String()]
	if !ok {
		return nil, hookfreight.ErrAppNotFound
	}
	return a, nil
}

func (s *Store) ListApps(_ context.Context, opts app.ListOpts) ([]*app.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*app.App, 0, len(s.apps))
	for _, a := range s.apps {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return applyPagination(result, opts.Offset, opts.Limit), nil
}

// CascadeDeleteApp removes the app and, transitively, its endpoints and
// their events. Deliveries referencing a deleted event are left in place
// per SPEC_FULL §3 (garbage-collected later, not required on the hot path).
func (s *Store) CascadeDeleteApp(_ context.Context, appID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var epIDs []string
	for key, ep := range s.endpoints {
		if ep.AppID == appID {
			epIDs = append(epIDs, key)
		}
	}
	for _, epKey := range epIDs {
		ep := s.endpoints[epKey]
		delete(s.endpointsByToken, ep.HookToken)
		for _, evt := range s.eventsByEndpoint[epKey] {
			delete(s.events, evt.ID.String())
		}
		delete(s.eventsByEndpoint, epKey)
		delete(s.endpoints, epKey)
	}
	delete(s.apps, appID.String())
	return nil
}

// ── Endpoint ─────────────────────────────────────────

func (s *Store) CreateEndpoint(_ context.Context, ep *endpoint.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.endpointsByToken[ep.HookToken]; exists {
		return hookfreight.ErrDuplicateHookToken
	}
	s.endpoints[ep.ID.String()] = ep
	s.endpointsByToken[ep.HookToken] = ep
	return nil
}

func (s *Store) UpdateEndpoint(_ context.Context, ep *endpoint.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.endpoints[ep.ID.String()]; !ok {
		return hookfreight.ErrEndpointNotFound
	}
	s.endpoints[ep.ID.String()] = ep
	s.endpointsByToken[ep.HookToken] = ep
	return nil
}

func (s *Store) DeleteEndpoint(_ context.Context, epID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ep, ok := s.endpoints[epID.String()]
	if !ok {
		return hookfreight.ErrEndpointNotFound
	}
	delete(s.endpointsByToken, ep.HookToken)
	delete(s.endpoints, epID.String())
	return nil
}

func (s *Store) ByID(_ context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.endpoints[epID.String()]
	if !ok {
		return nil, hookfreight.ErrEndpointNotFound
	}
	return ep, nil
}

func (s *Store) ByHookToken(_ context.Context, hookToken string) (*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.endpointsByToken[hookToken]
	if !ok {
		return nil, hookfreight.ErrEndpointNotFound
	}
	return ep, nil
}

func (s *Store) ListByApp(_ context.Context, appID id.ID, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*endpoint.Endpoint, 0)
	for _, ep := range s.endpoints {
		if ep.AppID == appID {
			result = append(result, ep)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListEndpointIDsByApp(_ context.Context, appID id.ID, offset, batchSize int) ([]id.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []id.ID
	for _, ep := range s.endpoints {
		if ep.AppID == appID {
			ids = append(ids, ep.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + batchSize
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end], nil
}

// ── Event ────────────────────────────────────────────

func (s *Store) Append(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	evt.Seq = s.nextSeq
	s.events[evt.ID.String()] = evt
	s.eventsByEndpoint[evt.EndpointID.String()] = append(s.eventsByEndpoint[evt.EndpointID.String()], evt)
	return nil
}

func (s *Store) Get(_ context.Context, evtID id.ID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evt, ok := s.events[evtID.String()]
	if !ok {
		return nil, hookfreight.ErrEventNotFound
	}
	return evt, nil
}

func (s *Store) ListByEndpoint(_ context.Context, epID id.ID, opts event.ListOpts) (event.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := append([]*event.Event(nil), s.eventsByEndpoint[epID.String()]...)
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ReceivedAt.Equal(all[j].ReceivedAt) {
			return all[i].ReceivedAt.After(all[j].ReceivedAt)
		}
		return all[i].Seq > all[j].Seq
	})

	opts = event.ClampListOpts(opts)
	page := paginate(all, opts.Offset, opts.Limit)
	return event.Page{Events: page.items, HasNext: page.hasNext}, nil
}

// ── Delivery ─────────────────────────────────────────

func (s *Store) AppendDelivery(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deliveryUniqueKey(d)
	if s.deliveriesByKey[key] {
		return hookfreight.ErrDuplicateDelivery
	}
	s.deliveriesByKey[key] = true
	s.deliveries[d.ID.String()] = d
	return nil
}

func (s *Store) GetDelivery(_ context.Context, delID id.ID) (*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[delID.String()]
	if !ok {
		return nil, hookfreight.ErrDeliveryNotFound
	}
	return d, nil
}

func (s *Store) ListDeliveriesByEvent(_ context.Context, evtID id.ID, opts delivery.ListOpts) (delivery.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*delivery.Delivery
	for _, d := range s.deliveries {
		if d.EventID == evtID {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	opts = delivery.ClampListOpts(opts)
	page := paginate(all, opts.Offset, opts.Limit)
	return delivery.Page{Deliveries: page.items, HasNext: page.hasNext}, nil
}

func deliveryUniqueKey(d *delivery.Delivery) string {
	parent := "none"
	if d.ParentDeliveryID != nil {
		parent = d.ParentDeliveryID.String()
	}
	return d.EventID.String() + "|" + parent
}

type paginated[T any] struct {
	items   []*T
	hasNext bool
}

func paginate[T any](items []*T, offset, limit int) paginated[T] {
	if offset >= len(items) {
		return paginated[T]{}
	}
	items = items[offset:]
	hasNext := len(items) > limit
	if len(items) > limit {
		items = items[:limit]
	}
	return paginated[T]{items: items, hasNext: hasNext}
}

func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
