package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"soda/internal/core"
	applog "soda/internal/log"
	"soda/internal/repository"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
	now    func() time.Time
}

var _ repository.Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements repository.Repository. Totals are stored alongside the
// fields so reads can trust them.
func (r *SQLiteRepository) Create(ctx context.Context, f core.Fields) (string, error) {
	if err := f.Validate(); err != nil {
		return "", &repository.Error{Op: repository.OpCreate, Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	id := uuid.NewString()
	now := r.now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO summaries (id, date, sales, municipal_tax, invoices, allowance, salaries,
			total_expenses, final_profit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, f.Date.String(),
		f.Sales.String(), f.MunicipalTax.String(), f.Invoices.String(), f.Allowance.String(), f.Salaries.String(),
		f.Expenses().String(), f.Profit().String(), now, now)
	if err != nil {
		return "", dbError(repository.OpCreate, err)
	}

	r.logger.InfoContext(ctx, "Summary saved to SQLite",
		applog.FieldSummaryID, id,
		applog.FieldSummaryDay, f.Date.String())
	return id, nil
}

// ListAll implements repository.Repository.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, sales, municipal_tax, invoices, allowance, salaries, total_expenses, final_profit
		FROM summaries
		ORDER BY date, created_at`)
	if err != nil {
		return nil, dbError(repository.OpList, err)
	}
	defer rows.Close()

	var out []core.Summary
	for rows.Next() {
		var (
			id, date                                        string
			sales, municipal, invoices, allowance, salaries string
			totalExpenses, finalProfit                      sql.NullString
		)
		if err := rows.Scan(&id, &date, &sales, &municipal, &invoices, &allowance, &salaries, &totalExpenses, &finalProfit); err != nil {
			return nil, dbError(repository.OpList, err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			r.logger.WarnContext(ctx, "Stored summary has invalid date", applog.FieldSummaryID, id, applog.FieldError, err)
		}
		f := core.Fields{
			Date:         d,
			Sales:        parseStored(sales),
			MunicipalTax: parseStored(municipal),
			Invoices:     parseStored(invoices),
			Allowance:    parseStored(allowance),
			Salaries:     parseStored(salaries),
		}
		out = append(out, core.NewSummary(id, f, core.StoredTotals{
			TotalExpenses: parseNullStored(totalExpenses),
			FinalProfit:   parseNullStored(finalProfit),
		}))
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(repository.OpList, err)
	}
	return out, nil
}

// Update implements repository.Repository.
func (r *SQLiteRepository) Update(ctx context.Context, id string, f core.Fields) error {
	if err := f.Validate(); err != nil {
		return &repository.Error{Op: repository.OpUpdate, Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE summaries
		SET date = ?, sales = ?, municipal_tax = ?, invoices = ?, allowance = ?, salaries = ?,
			total_expenses = ?, final_profit = ?, updated_at = ?
		WHERE id = ?`,
		f.Date.String(),
		f.Sales.String(), f.MunicipalTax.String(), f.Invoices.String(), f.Allowance.String(), f.Salaries.String(),
		f.Expenses().String(), f.Profit().String(),
		r.now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return dbError(repository.OpUpdate, err)
	}
	return affectedOne(repository.OpUpdate, res)
}

// Delete implements repository.Repository.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM summaries WHERE id = ?`, id)
	if err != nil {
		return dbError(repository.OpDelete, err)
	}
	if err := affectedOne(repository.OpDelete, res); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Summary deleted from SQLite", applog.FieldSummaryID, id)
	return nil
}

func affectedOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(op, err)
	}
	if n == 0 {
		return &repository.Error{Op: op, Status: http.StatusNotFound, Message: "Resumen no encontrado", Err: repository.ErrNotFound}
	}
	return nil
}

func dbError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &repository.Error{Op: op, Message: err.Error(), Err: err}
	}
	return &repository.Error{Op: op, Status: http.StatusInternalServerError, Message: "Error de base de datos", Err: err}
}

func parseStored(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseNullStored(s sql.NullString) decimal.NullDecimal {
	if !s.Valid || s.String == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
