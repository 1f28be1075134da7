package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"agencyops/database"
	"agencyops/models"
)

// LedgerRepository implements the LedgerRepository interface.
// Entries are only ever written by the record_ledger_entry stored procedure.
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Record writes entry through record_ledger_entry and fills in the id, running balances and
// timestamp computed by the database
func (r *LedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	metadataJSON := []byte("{}")
	if len(entry.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger metadata: %w", err)
		}
	}

	var refType *string
	if entry.ReferenceType != nil {
		s := string(*entry.ReferenceType)
		refType = &s
	}

	query := `
		SELECT id, balance_before, balance_after, created_at
		FROM record_ledger_entry($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	err := r.q.QueryRow(ctx, query,
		entry.DepartmentID,
		string(entry.EntryType),
		string(entry.Direction),
		int64(entry.Amount),
		entry.Period.Year,
		entry.Period.Month,
		refType,
		entry.ReferenceID,
		entry.Description,
		metadataJSON,
	).Scan(&entry.ID, &entry.BalanceBefore, &entry.BalanceAfter, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record %s %s of %s for department %d: %w",
			entry.EntryType, entry.Direction, entry.Amount, entry.DepartmentID, classifyError(err))
	}
	return nil
}

// List returns entries newest first
func (r *LedgerRepository) List(ctx context.Context, filter models.LedgerFilter) ([]*models.LedgerEntry, error) {
	var where whereBuilder
	if filter.DepartmentID != 0 {
		where.add("department_id = $%d", filter.DepartmentID)
	}
	where.addPeriod("", filter.Period)
	if filter.EntryType != "" {
		where.add("entry_type = $%d", string(filter.EntryType))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, department_id, entry_type, direction, amount, fiscal_year, fiscal_month,
		       reference_type, reference_id, description, metadata, balance_before, balance_after, created_at
		FROM ledger_entries ` + where.clause() + `
		ORDER BY id DESC ` + where.limitArg(limit)

	rows, err := r.q.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		var refType *string
		var metadataJSON []byte

		err := rows.Scan(
			&e.ID,
			&e.DepartmentID,
			&e.EntryType,
			&e.Direction,
			&e.Amount,
			&e.Period.Year,
			&e.Period.Month,
			&refType,
			&e.ReferenceID,
			&e.Description,
			&metadataJSON,
			&e.BalanceBefore,
			&e.BalanceAfter,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if refType != nil {
			rt := models.ReferenceType(*refType)
			e.ReferenceType = &rt
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

// Balances returns the running balance of every department, zero for departments without entries
func (r *LedgerRepository) Balances(ctx context.Context) ([]*models.DepartmentBalance, error) {
	query := `
		SELECT d.id, d.code, COALESCE(b.balance, 0), COALESCE(b.updated_at, d.created_at)
		FROM departments d
		LEFT JOIN department_balances b ON b.department_id = d.id
		ORDER BY d.id
	`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get department balances: %w", err)
	}
	defer rows.Close()

	balances := []*models.DepartmentBalance{}
	for rows.Next() {
		var b models.DepartmentBalance
		if err := rows.Scan(&b.DepartmentID, &b.DepartmentCode, &b.Balance, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan department balance: %w", err)
		}
		balances = append(balances, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate department balances: %w", err)
	}
	return balances, nil
}

// SumByPeriod totals entries per department, type and direction for a period
func (r *LedgerRepository) SumByPeriod(ctx context.Context, period models.FiscalPeriod) ([]*models.LedgerPeriodSum, error) {
	query := `
		SELECT l.department_id, d.code, d.name, l.entry_type, l.direction, SUM(l.amount)::BIGINT
		FROM ledger_entries l
		JOIN departments d ON d.id = l.department_id
		WHERE l.fiscal_year = $1 AND l.fiscal_month = $2
		GROUP BY l.department_id, d.code, d.name, l.entry_type, l.direction
		ORDER BY l.department_id
	`
	rows, err := r.q.Query(ctx, query, period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger for %s: %w", period, err)
	}
	defer rows.Close()

	sums := []*models.LedgerPeriodSum{}
	for rows.Next() {
		var s models.LedgerPeriodSum
		if err := rows.Scan(&s.DepartmentID, &s.DepartmentCode, &s.DepartmentName, &s.EntryType, &s.Direction, &s.Total); err != nil {
			return nil, fmt.Errorf("failed to scan ledger sum: %w", err)
		}
		sums = append(sums, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger sums: %w", err)
	}
	return sums, nil
}
