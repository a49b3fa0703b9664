package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"frameshop/domain"
	"frameshop/internal/models"
	"frameshop/internal/pagination"
)

// OrderRepository stores orders in Postgres.
// The whole order is a JSONB document; the columns next to it exist for
// lookups and for the admin filters.
type OrderRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewOrderRepository(ctx context.Context, db *sqlx.DB) (*OrderRepository, error) {
	o := &OrderRepository{db: db, now: time.Now}
	if err := o.migrate(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OrderRepository) migrate(ctx context.Context) error {
	const query = `create table if not exists public.orders
(
    id              varchar(36) primary key not null,
    tracking_number varchar(32)             not null,
    status          varchar(16)             not null,
    email           text                    not null default '',
    total           bigint                  not null default 0,
    created_at      timestamptz             not null default now(),
    data            jsonb default '{}'::jsonb not null
);

create unique index if not exists uq_orders_tracking_number
    on public.orders (tracking_number);

create index if not exists ix_orders_status_created
    on public.orders (status, created_at desc);`

	if _, err := o.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate orders: %w", err)
	}
	return nil
}

func (o *OrderRepository) Create(ctx context.Context, order *domain.Order) (int64, error) {
	const query = `INSERT INTO public.orders (id, tracking_number, status, email, total, created_at, data)
VALUES (:id, :tracking_number, :status, :email, :total, :created_at, :data)`
	result, err := o.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              order.ID,
		"tracking_number": order.TrackingNumber,
		"status":          string(order.Status),
		"email":           strings.ToLower(order.Customer.Email),
		"total":           order.Totals.Total,
		"created_at":      order.CreatedAt,
		"data":            order,
	})
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (o *OrderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	order := models.Order{}
	err := o.db.GetContext(ctx, &order, "SELECT id, data FROM public.orders WHERE id=$1", id)
	if err != nil {
		return domain.Order{}, notFound(err)
	}
	return order.Data, nil
}

func (o *OrderRepository) GetByTracking(ctx context.Context, tracking string) (domain.Order, error) {
	order := models.Order{}
	err := o.db.GetContext(ctx, &order, "SELECT id, data FROM public.orders WHERE tracking_number=$1", tracking)
	if err != nil {
		return domain.Order{}, notFound(err)
	}
	return order.Data, nil
}

func (o *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := o.db.QueryxContext(ctx, "SELECT id, data FROM public.orders ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func scanOrders(rows *sqlx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order := models.Order{}
		if err := rows.StructScan(&order); err != nil {
			return nil, err
		}
		orders = append(orders, order.Data)
	}
	return orders, rows.Err()
}

// orderWhere renders filter as a WHERE clause with positional arguments.
func orderWhere(filter domain.OrderFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, containsPattern(q))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(id ILIKE $%[1]d OR tracking_number ILIKE $%[1]d OR email ILIKE $%[1]d OR data->'customer'->>'name' ILIKE $%[1]d)", n))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Search returns one page of orders matching filter, newest first.
func (o *OrderRepository) Search(ctx context.Context, filter domain.OrderFilter, page, perPage int) ([]domain.Order, pagination.Page, error) {
	where, args := orderWhere(filter)

	var total int
	if err := o.db.GetContext(ctx, &total, "SELECT count(*) FROM public.orders"+where, args...); err != nil {
		return nil, pagination.Page{}, fmt.Errorf("failed to count orders: %w", err)
	}

	p := pagination.New(page, perPage, total)
	query := fmt.Sprintf("SELECT id, data FROM public.orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)

	rows, err := o.db.QueryxContext(ctx, query, append(args, p.Limit(), p.Offset)...)
	if err != nil {
		return nil, pagination.Page{}, fmt.Errorf("failed to search orders: %w", err)
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	return orders, p, nil
}

// UpdateStatus moves one order to status inside a transaction and reports
// whether anything changed. An order already in status is left as it is.
func (o *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (domain.Order, bool, error) {
	tx, err := o.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Order{}, false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := models.Order{}
	if err = tx.GetContext(ctx, &row, "SELECT id, data FROM public.orders WHERE id=$1 FOR UPDATE", id); err != nil {
		return domain.Order{}, false, notFound(err)
	}

	order := row.Data
	if order.Status == status {
		return order, false, nil
	}
	if err = order.Transition(status, note, o.now().UTC()); err != nil {
		return domain.Order{}, false, err
	}
	if err = o.save(ctx, tx, order); err != nil {
		return domain.Order{}, false, err
	}
	if err = tx.Commit(); err != nil {
		return domain.Order{}, false, err
	}
	return order, true, nil
}

func (o *OrderRepository) save(ctx context.Context, tx *sqlx.Tx, order domain.Order) error {
	_, err := tx.ExecContext(ctx, "UPDATE public.orders SET status=$2, data=$3 WHERE id=$1",
		order.ID, string(order.Status), order)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	return nil
}

// BulkUpdateStatus moves every order in ids to status. Orders that cannot make
// the transition, or do not exist, are reported in Failed and left untouched.
func (o *OrderRepository) BulkUpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, note string) (domain.BulkResult, error) {
	res := newBulkResult()
	if len(ids) == 0 {
		return res, nil
	}

	tx, err := o.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryxContext(ctx,
		"SELECT id, data FROM public.orders WHERE id = ANY($1) ORDER BY id FOR UPDATE", pq.Array(ids))
	if err != nil {
		return res, fmt.Errorf("failed to lock orders: %w", err)
	}
	found, err := scanOrders(rows)
	if err != nil {
		return res, err
	}

	byID := make(map[string]domain.Order, len(found))
	for _, order := range found {
		byID[order.ID] = order
	}

	now := o.now().UTC()
	for _, id := range ids {
		order, ok := byID[id]
		if !ok {
			res.Failed = append(res.Failed, domain.BulkFailure{ID: id, Reason: ErrNotFound.Error()})
			continue
		}
		if order.Status == status {
			res.Unchanged = append(res.Unchanged, id)
			continue
		}
		if err = order.Transition(status, note, now); err != nil {
			res.Failed = append(res.Failed, domain.BulkFailure{ID: id, Reason: err.Error()})
			continue
		}

		if err = o.save(ctx, tx, order); err != nil {
			return domain.BulkResult{}, err
		}
		res.Updated = append(res.Updated, id)
		// a repeated id must see the already updated status
		byID[id] = order
	}

	if err = tx.Commit(); err != nil {
		return domain.BulkResult{}, err
	}
	return res, nil
}

// Stats counts orders per status.
func (o *OrderRepository) Stats(ctx context.Context) (domain.OrderStats, error) {
	var rows []models.StatusCount
	err := o.db.SelectContext(ctx, &rows,
		"SELECT status, count(*) AS count, sum(total) AS revenue FROM public.orders GROUP BY status")
	if err != nil {
		return domain.OrderStats{}, err
	}

	stats := domain.OrderStats{Counts: make(map[domain.OrderStatus]int, len(domain.Statuses))}
	for _, st := range domain.Statuses {
		stats.Counts[st] = 0
	}
	for _, row := range rows {
		st := domain.OrderStatus(row.Status)
		stats.Counts[st] = row.Count
		stats.Total += row.Count
		if st != domain.StatusCancelled && st != domain.StatusRefunded {
			stats.Revenue += int(row.Revenue.Int64)
		}
	}
	return stats, nil
}
