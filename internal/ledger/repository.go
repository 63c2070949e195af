package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/milltrade-erp/milltrade-erp/internal/shared"
)

// Repository defines ledger data access.
type Repository interface {
	CreateEntry(ctx context.Context, e PurchaseEntry) (PurchaseEntry, error)
	GetEntry(ctx context.Context, serialNo string) (PurchaseEntry, error)
	ListEntries(ctx context.Context, page shared.Pagination) ([]PurchaseEntry, int, error)
	AllEntries(ctx context.Context) ([]PurchaseEntry, error)

	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	GetPayment(ctx context.Context, id string) (Payment, error)
	ListPayments(ctx context.Context, page shared.Pagination) ([]Payment, int, error)
	AllPayments(ctx context.Context) ([]Payment, error)
}

const uniqueViolation = "23505"

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const entryColumns = `id, serial_no, name, father_or_spouse_name, address, contact,
	entry_date, variety,
	gross_weight, tare_weight, final_weight, karta_weight, net_weight,
	rate, amount, karta_amount, labour_amount, kanta_amount,
	brokerage_rate, brokerage_amount, brokerage_included, other_charges,
	original_net_amount, created_at, updated_at`

func (r *pgRepository) CreateEntry(ctx context.Context, e PurchaseEntry) (PurchaseEntry, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO purchase_entries (
		serial_no, name, father_or_spouse_name, address, contact,
		entry_date, variety,
		gross_weight, tare_weight, final_weight, karta_weight, net_weight,
		rate, amount, karta_amount, labour_amount, kanta_amount,
		brokerage_rate, brokerage_amount, brokerage_included, other_charges,
		original_net_amount
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	RETURNING `+entryColumns,
		e.SerialNo, e.Name, e.FatherOrSpouseName, e.Address, e.Contact,
		e.EntryDate, e.Variety,
		e.GrossWeight, e.TareWeight, e.FinalWeight, e.KartaWeight, e.NetWeight,
		e.Rate, e.Amount, e.KartaAmount, e.LabourAmount, e.KantaAmount,
		e.BrokerageRate, e.BrokerageAmount, e.BrokerageIncluded, e.OtherCharges,
		e.OriginalNetAmount,
	)
	created, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return PurchaseEntry{}, ErrDuplicateSerial
		}
		return PurchaseEntry{}, fmt.Errorf("ledger: create entry: %w", err)
	}
	return created, nil
}

func (r *pgRepository) GetEntry(ctx context.Context, serialNo string) (PurchaseEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM purchase_entries WHERE serial_no = $1`, serialNo)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return PurchaseEntry{}, fmt.Errorf("ledger: get entry: %w", err)
	}
	return e, nil
}

func (r *pgRepository) ListEntries(ctx context.Context, page shared.Pagination) ([]PurchaseEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_entries`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count entries: %w", err)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM purchase_entries ORDER BY id LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list entries: %w", err)
	}
	defer rows.Close()
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// AllEntries returns the full ledger in insertion order. The engine's
// greedy clustering depends on this order staying stable.
func (r *pgRepository) AllEntries(ctx context.Context) ([]PurchaseEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM purchase_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: all entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *pgRepository) CreatePayment(ctx context.Context, p Payment) (Payment, error) {
	paidFor, err := json.Marshal(p.PaidFor)
	if err != nil {
		return Payment{}, fmt.Errorf("ledger: encode allocations: %w", err)
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO payments (id, payment_date, receipt_type, total_cd, paid_for, note)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, payment_date, receipt_type, total_cd, paid_for, note, created_at`,
		p.ID, p.PaymentDate, string(p.ReceiptType), p.TotalCD, paidFor, p.Note,
	)
	created, err := scanPayment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Payment{}, ErrDuplicatePayment
		}
		return Payment{}, fmt.Errorf("ledger: create payment: %w", err)
	}
	return created, nil
}

func (r *pgRepository) GetPayment(ctx context.Context, id string) (Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, payment_date, receipt_type, total_cd, paid_for, note, created_at
		FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrPaymentNotFound
	}
	if err != nil {
		return Payment{}, fmt.Errorf("ledger: get payment: %w", err)
	}
	return p, nil
}

func (r *pgRepository) ListPayments(ctx context.Context, page shared.Pagination) ([]Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count payments: %w", err)
	}
	rows, err := r.pool.Query(ctx, `SELECT id, payment_date, receipt_type, total_cd, paid_for, note, created_at
		FROM payments ORDER BY created_at, id LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list payments: %w", err)
	}
	defer rows.Close()
	payments, err := collectPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *pgRepository) AllPayments(ctx context.Context) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, payment_date, receipt_type, total_cd, paid_for, note, created_at
		FROM payments ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: all payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (PurchaseEntry, error) {
	var e PurchaseEntry
	err := row.Scan(
		&e.ID, &e.SerialNo, &e.Name, &e.FatherOrSpouseName, &e.Address, &e.Contact,
		&e.EntryDate, &e.Variety,
		&e.GrossWeight, &e.TareWeight, &e.FinalWeight, &e.KartaWeight, &e.NetWeight,
		&e.Rate, &e.Amount, &e.KartaAmount, &e.LabourAmount, &e.KantaAmount,
		&e.BrokerageRate, &e.BrokerageAmount, &e.BrokerageIncluded, &e.OtherCharges,
		&e.OriginalNetAmount, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func collectEntries(rows pgx.Rows) ([]PurchaseEntry, error) {
	var entries []PurchaseEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate entries: %w", err)
	}
	return entries, nil
}

func scanPayment(row rowScanner) (Payment, error) {
	var (
		p       Payment
		rt      string
		paidFor []byte
	)
	err := row.Scan(&p.ID, &p.PaymentDate, &rt, &p.TotalCD, &paidFor, &p.Note, &p.CreatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.ReceiptType = parseReceiptType(rt)
	if len(paidFor) > 0 {
		// Garbled legacy allocations degrade field by field inside
		// FlexNumber; a fully unreadable document yields an empty list.
		if err := json.Unmarshal(paidFor, &p.PaidFor); err != nil {
			p.PaidFor = nil
		}
	}
	return p, nil
}

func collectPayments(rows pgx.Rows) ([]Payment, error) {
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate payments: %w", err)
	}
	return payments, nil
}
