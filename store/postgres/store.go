// Package postgres implements store.Store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	hookfreight "github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/app"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/id"
	relaystore "github.com/hookfreight/hookfreight/store"
)

var _ relaystore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a PostgreSQL store backed by an already-connected grove.DB.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("hookfreight/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("hookfreight/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== App Store ====================

func (s *Store) CreateApp(ctx context.Context, a *app.App) error {
	m := toAppModel(a)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetApp(ctx context.Context, appID id.ID) (*app.App, error) {
	m := new(appModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", appID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hookfreight.ErrAppNotFound
		}
		return nil, err
	}
	return fromAppModel(m)
}

func (s *Store) ListApps(ctx context.Context, opts app.ListOpts) ([]*app.App, error) {
	var models []appModel
	q := s.pg.NewSelect(&models).OrderExpr("created_at DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*app.App, len(models))
	for i := range models {
		a, err := fromAppModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// CascadeDeleteApp deletes an app's endpoints' events, then its endpoints,
// then the app itself. Safe to retry: each step only removes rows that
// still exist.
func (s *Store) CascadeDeleteApp(ctx context.Context, appID id.ID) error {
	if _, err := s.pg.NewRaw(`
DELETE FROM hookfreight_events
WHERE endpoint_id IN (SELECT id FROM hookfreight_endpoints WHERE app_id = $1)
`, appID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("hookfreight/postgres: cascade delete events: %w", err)
	}

	if _, err := s.pg.NewDelete((*endpointModel)(nil)).
		Where("app_id = $1", appID.String()).
		Exec(ctx); err != nil {
		return fmt.Errorf("hookfreight/postgres: cascade delete endpoints: %w", err)
	}

	if _, err := s.pg.NewDelete((*appModel)(nil)).
		Where("id = $1", appID.String()).
		Exec(ctx); err != nil {
		return fmt.Errorf("hookfreight/postgres: delete app: %w", err)
	}
	return nil
}

// ==================== Endpoint Store ====================

func (s *Store) CreateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) UpdateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return hookfreight.ErrEndpointNotFound
	}
	return nil
}

func (s *Store) DeleteEndpoint(ctx context.Context, epID id.ID) error {
	res, err := s.pg.NewDelete((*endpointModel)(nil)).
		Where("id = $1", epID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return hookfreight.ErrEndpointNotFound
	}
	return nil
}

func (s *Store) ByID(ctx context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	m := new(endpointModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", epID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hookfreight.ErrEndpointNotFound
		}
		return nil, err
	}
	return fromEndpointModel(m)
}

func (s *Store) ByHookToken(ctx context.Context, hookToken string) (*endpoint.Endpoint, error) {
	m := new(endpointModel)
	err := s.pg.NewSelect(m).
		Where("hook_token = $1", hookToken).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hookfreight.ErrEndpointNotFound
		}
		return nil, err
	}
	return fromEndpointModel(m)
}

func (s *Store) ListByApp(ctx context.Context, appID id.ID, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	var models []endpointModel
	q := s.pg.NewSelect(&models).
		Where("app_id = $1", appID.String()).
		OrderExpr("created_at DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*endpoint.Endpoint, len(models))
	for i := range models {
		ep, err := fromEndpointModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = ep
	}
	return result, nil
}

func (s *Store) ListEndpointIDsByApp(ctx context.Context, appID id.ID, offset, batchSize int) ([]id.ID, error) {
	var models []endpointModel
	err := s.pg.NewSelect(&models).
		Where("app_id = $1", appID.String()).
		OrderExpr("id ASC").
		Offset(offset).
		Limit(batchSize).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]id.ID, len(models))
	for i := range models {
		epID, err := id.ParseWithPrefix(models[i].ID, id.PrefixEndpoint)
		if err != nil {
			return nil, fmt.Errorf("hookfreight/postgres: parse endpoint id %q: %w", models[i].ID, err)
		}
		ids[i] = epID
	}
	return ids, nil
}

// ==================== Event Store ====================

func (s *Store) Append(ctx context.Context, evt *event.Event) error {
	m, err := toEventModel(evt)
	if err != nil {
		return err
	}

	// Raw SQL so the database-assigned seq (BIGSERIAL) comes back in the
	// same round trip, mirroring the FOR UPDATE SKIP LOCKED dequeue's use
	// of RETURNING against a raw query rather than the model builder.
	var seq int64
	err = s.pg.NewRaw(`
INSERT INTO hookfreight_events
    (id, endpoint_id, received_at, method, original_url, source_url, path, query, headers, body, source_ip, user_agent, size_bytes)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING seq
`,
		m.ID, m.EndpointID, m.ReceivedAt, m.Method, m.OriginalURL, m.SourceURL, m.Path,
		m.Query, m.Headers, m.Body, m.SourceIP, m.UserAgent, m.SizeBytes,
	).Scan(ctx, &seq)
	if err != nil {
		return err
	}
	evt.Seq = seq
	return nil
}

func (s *Store) Get(ctx context.Context, evtID id.ID) (*event.Event, error) {
	m := new(eventModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", evtID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hookfreight.ErrEventNotFound
		}
		return nil, err
	}
	return fromEventModel(m)
}

func (s *Store) ListByEndpoint(ctx context.Context, epID id.ID, opts event.ListOpts) (event.Page, error) {
	opts = event.ClampListOpts(opts)

	var models []eventModel
	err := s.pg.NewSelect(&models).
		Where("endpoint_id = $1", epID.String()).
		OrderExpr("received_at DESC, seq DESC").
		Offset(opts.Offset).
		Limit(opts.Limit + 1).
		Scan(ctx)
	if err != nil {
		return event.Page{}, err
	}

	hasNext := len(models) > opts.Limit
	if hasNext {
		models = models[:opts.Limit]
	}

	events := make([]*event.Event, len(models))
	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return event.Page{}, err
		}
		events[i] = evt
	}
	return event.Page{Events: events, HasNext: hasNext}, nil
}

// ==================== Delivery Store ====================

func (s *Store) AppendDelivery(ctx context.Context, d *delivery.Delivery) error {
	m, err := toDeliveryModel(d)
	if err != nil {
		return err
	}

	// ON CONFLICT DO NOTHING against the (event_id, parent_delivery_id)
	// unique index enforces the one-attempt-per-event-per-parent rule; a
	// zero rows-affected result means the attempt was already recorded.
	res, err := s.pg.NewInsert(m).
		OnConflict("(event_id, COALESCE(parent_delivery_id, '')) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return hookfreight.ErrDuplicateDelivery
	}
	return nil
}

func (s *Store) GetDelivery(ctx context.Context, delID id.ID) (*delivery.Delivery, error) {
	m := new(deliveryModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", delID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hookfreight.ErrDeliveryNotFound
		}
		return nil, err
	}
	return fromDeliveryModel(m)
}

func (s *Store) ListDeliveriesByEvent(ctx context.Context, evtID id.ID, opts delivery.ListOpts) (delivery.Page, error) {
	opts = delivery.ClampListOpts(opts)

	var models []deliveryModel
	err := s.pg.NewSelect(&models).
		Where("event_id = $1", evtID.String()).
		OrderExpr("created_at DESC").
		Offset(opts.Offset).
		Limit(opts.Limit + 1).
		Scan(ctx)
	if err != nil {
		return delivery.Page{}, err
	}

	hasNext := len(models) > opts.Limit
	if hasNext {
		models = models[:opts.Limit]
	}

	deliveries := make([]*delivery.Delivery, len(models))
	for i := range models {
		d, err := fromDeliveryModel(&models[i])
		if err != nil {
			return delivery.Page{}, err
		}
		deliveries[i] = d
	}
	return delivery.Page{Deliveries: deliveries, HasNext: hasNext}, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
