package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/order"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	db *DB
}

const orderColumns = `id, number, email, customer_name, phone, shipping_address, shipping_city,
	shipping_zip, shipping_country, subtotal::text, shipping_cost::text, total::text, status,
	payment_status, COALESCE(payment_ref, ''), COALESCE(user_id, ''), COALESCE(idempotency_key, ''),
	request_hash, stock_released, created_at, updated_at`

const constraintPaymentRef = "orders_payment_ref_key"

// Place reserves stock and inserts the order with its items in one transaction.
func (r *OrderRepository) Place(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	scope := ""
	if order.IdempotencyKey != "" {
		scope = order.IdempotencyScope()
	}

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := reserveStock(ctx, tx, quantities(order.Items)); err != nil {
			return err
		}

		c := order.Customer
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, number, email, customer_name, phone, shipping_address, shipping_city,
			                    shipping_zip, shipping_country, subtotal, shipping_cost, total, status,
			                    payment_status, payment_ref, user_id, idempotency_scope, idempotency_key,
			                    request_hash, stock_released, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		`,
			order.ID, order.Number, c.Email, c.Name, c.Phone, c.ShippingAddress, c.ShippingCity,
			c.ShippingZip, c.ShippingCountry, order.Subtotal.String(), order.ShippingCost.String(),
			order.Total.String(), string(order.Status), string(order.PaymentStatus),
			nullable(order.PaymentRef), nullable(order.UserID), nullable(scope), nullable(order.IdempotencyKey),
			order.RequestHash, order.StockReleased, order.CreatedAt, order.UpdatedAt)
		if err != nil {
			if cerr := orderConflict(err); cerr != nil {
				return cerr
			}
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, it := range order.Items {
			batch.Queue(`
				INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, it.ID, order.ID, it.ProductID, it.ProductName, it.Quantity, it.Price.String(), i)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if _, dup := uniqueConstraint(err); dup {
				return domain.ErrConflict
			}
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, scope, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_scope = $1 AND idempotency_key = $2`,
		scope, key)
}

func (r *OrderRepository) FindByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	if ref == "" {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_ref = $1`, ref)
}

func (r *OrderRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// SetStatus locks the order row, checks it is still in from and, when a cancelled order with
// released stock is reopened, reserves its items again before writing the new status.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		var (
			current  string
			released bool
		)
		err := tx.QueryRow(ctx, `SELECT status, stock_released FROM orders WHERE id = $1 FOR UPDATE`, id).
			Scan(&current, &released)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if domain.Status(current) != from {
			return domain.ErrConflict
		}

		if released && domain.Reopens(from, to) {
			need, err := itemQuantities(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := reserveStock(ctx, tx, need); err != nil {
				return err
			}
			released = false
		}

		_, err = tx.Exec(ctx, `UPDATE orders SET status = $2, stock_released = $3, updated_at = NOW() WHERE id = $1`,
			id, string(to), released)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id, ref string) (bool, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2, payment_ref = COALESCE($3, payment_ref), updated_at = NOW()
		WHERE id = $1 AND payment_status <> $2
	`, id, string(domain.PaymentPaid), nullable(ref))
	if err != nil {
		if cerr := orderConflict(err); cerr != nil {
			return false, cerr
		}
		return false, fmt.Errorf("mark paid: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	_, err = r.paymentStatus(ctx, id)
	return false, err
}

func (r *OrderRepository) MarkPaymentFailed(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status = $3
	`, id, string(domain.PaymentFailed), string(domain.PaymentPending))
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	status, err := r.paymentStatus(ctx, id)
	if err != nil {
		return false, err
	}
	if status == domain.PaymentPaid {
		return false, domain.ErrAlreadyPaid
	}
	return false, nil
}

func (r *OrderRepository) AttachPaymentRef(ctx context.Context, id, ref string) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE orders SET payment_ref = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status <> $3
	`, id, nullable(ref), string(domain.PaymentPaid))
	if err != nil {
		if cerr := orderConflict(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("attach payment ref: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.paymentStatus(ctx, id); err != nil {
		return err
	}
	return domain.ErrAlreadyPaid
}

func (r *OrderRepository) paymentStatus(ctx context.Context, id string) (domain.PaymentStatus, error) {
	var s string
	err := r.db.pool.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id = $1`, id).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load payment status: %w", err)
	}
	return domain.PaymentStatus(s), nil
}

func (r *OrderRepository) ReleaseStock(ctx context.Context, id string) (bool, error) {
	released := false
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET stock_released = true, updated_at = NOW()
			WHERE id = $1 AND stock_released = false AND status = $2
		`, id, string(domain.StatusCancelled))
		if err != nil {
			return fmt.Errorf("flag release: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("check order: %w", err)
			}
			if !exists {
				return domain.ErrNotFound
			}
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE products p
			SET stock = p.stock + i.qty, updated_at = NOW()
			FROM (SELECT product_id, SUM(quantity) AS qty FROM order_items WHERE order_id = $1 GROUP BY product_id) i
			WHERE p.id = i.product_id
		`, id)
		if err != nil {
			return fmt.Errorf("restock: %w", err)
		}
		released = true
		return nil
	})
	return released, err
}

func (r *OrderRepository) List(ctx context.Context, filter domain.Filter, page domain.Page) ([]*domain.Order, error) {
	where, args := buildOrderFilter(filter)
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC`
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) Count(ctx context.Context, filter domain.Filter) (int, error) {
	where, args := buildOrderFilter(filter)
	var n int
	err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&n)
	return n, err
}

func (r *OrderRepository) SumTotal(ctx context.Context, filter domain.Filter) (decimal.Decimal, error) {
	where, args := buildOrderFilter(filter)
	var s string
	if err := r.db.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total), 0)::text FROM orders`+where, args...).Scan(&s); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

func (r *OrderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price::text
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it      domain.Item
			orderID string
			price   string
		)
		if err := rows.Scan(&it.ID, &orderID, &it.ProductID, &it.ProductName, &it.Quantity, &price); err != nil {
			return err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("parse item price: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                         domain.Order
		subtotal, shipping, total string
		status, paymentStatus     string
	)
	c := &o.Customer
	err := row.Scan(
		&o.ID, &o.Number, &c.Email, &c.Name, &c.Phone, &c.ShippingAddress, &c.ShippingCity,
		&c.ShippingZip, &c.ShippingCountry, &subtotal, &shipping, &total, &status,
		&paymentStatus, &o.PaymentRef, &o.UserID, &o.IdempotencyKey,
		&o.RequestHash, &o.StockReleased, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, err
	}
	if o.ShippingCost, err = decimal.NewFromString(shipping); err != nil {
		return nil, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}

func buildOrderFilter(f domain.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", string(f.PaymentStatus))
	}
	if f.HasPaymentRef {
		conds = append(conds, "payment_ref IS NOT NULL")
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= $%d", f.CreatedFrom)
	}
	if !f.CreatedUntil.IsZero() {
		add("created_at < $%d", f.CreatedUntil)
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(number ILIKE $%[1]d ESCAPE '\' OR email ILIKE $%[1]d ESCAPE '\' OR customer_name ILIKE $%[1]d ESCAPE '\')`, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern that uses ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// reserveStock takes need (product id -> quantity) off the shelf with conditional decrements.
// Products are locked in id order so concurrent reservations cannot deadlock.
func reserveStock(ctx context.Context, tx pgx.Tx, need map[string]int) error {
	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, productID := range ids {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`,
			need[productID], productID)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
				return fmt.Errorf("check product: %w", err)
			}
			if !exists {
				return domcatalog.ErrNotFound
			}
			return fmt.Errorf("%w: product %s", domcatalog.ErrInsufficientStock, productID)
		}
	}
	return nil
}

func itemQuantities(ctx context.Context, tx pgx.Tx, orderID string) (map[string]int, error) {
	rows, err := tx.Query(ctx, `SELECT product_id, SUM(quantity) FROM order_items WHERE order_id = $1 GROUP BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	need := make(map[string]int)
	for rows.Next() {
		var (
			productID string
			qty       int
		)
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		need[productID] = qty
	}
	return need, rows.Err()
}

func quantities(items []domain.Item) map[string]int {
	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	return need
}

// orderConflict maps a unique violation on orders to its domain error, or returns nil.
func orderConflict(err error) error {
	name, dup := uniqueConstraint(err)
	switch {
	case !dup:
		return nil
	case name == constraintPaymentRef:
		return domain.ErrPaymentRefTaken
	default:
		return domain.ErrConflict
	}
}
