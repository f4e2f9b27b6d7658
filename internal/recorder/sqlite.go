package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"ConcentrationPanel/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers can query history while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT NOT NULL,
			fund         TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			status       TEXT NOT NULL,
			error        TEXT,
			periods      INTEGER,
			skipped      INTEGER,
			rejects      INTEGER,
			observations INTEGER,
			PRIMARY KEY (run_id, fund)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS concentration_records (
			run_id    TEXT NOT NULL,
			fund      TEXT NOT NULL,
			period    TEXT NOT NULL,
			hhi       REAL,
			gini      REAL,
			entropy   REAL,
			fund_size REAL,
			PRIMARY KEY (run_id, fund, period)
		)`,

		`CREATE TABLE IF NOT EXISTS regression_results (
			run_id         TEXT NOT NULL,
			fund           TEXT NOT NULL,
			factor         TEXT NOT NULL,
			r2             REAL,
			n_obs          INTEGER,
			coef_intercept REAL,
			coef_factor    REAL,
			coef_fund_size REAL,
			p_intercept    REAL,
			p_factor       REAL,
			p_fund_size    REAL,
			PRIMARY KEY (run_id, fund, factor)
		)`,

		`CREATE TABLE IF NOT EXISTS factor_failures (
			run_id TEXT NOT NULL,
			fund   TEXT NOT NULL,
			factor TEXT NOT NULL,
			error  TEXT,
			PRIMARY KEY (run_id, fund, factor)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores one fund's run in a single transaction.
func (r *SQLiteRecorder) RecordRun(snap *RunSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := recordRun(tx, snap); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func recordRun(tx *sql.Tx, snap *RunSnapshot) error {
	var errText sql.NullString
	if snap.Err != nil {
		errText = sql.NullString{String: snap.Err.Error(), Valid: true}
	}
	var periods, skipped, rejects, observations int
	if res := snap.Result; res != nil {
		periods = len(res.Records)
		skipped = len(res.PeriodSkips)
		rejects = len(res.HoldingRejects) + len(res.PriceRejects)
		observations = len(res.Panel)
	}

	if _, err := tx.Exec(`INSERT INTO runs
		(run_id, fund, timestamp, status, error, periods, skipped, rejects, observations)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		snap.RunID, snap.Fund, snap.StartedAt.Unix(), snap.Status(), errText,
		periods, skipped, rejects, observations,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	res := snap.Result
	if res == nil {
		return nil
	}

	for _, c := range res.Records {
		var size sql.NullFloat64
		if c.FundSize != nil {
			size = sql.NullFloat64{Float64: *c.FundSize, Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO concentration_records
			(run_id, fund, period, hhi, gini, entropy, fund_size)
			VALUES (?,?,?,?,?,?,?)`,
			snap.RunID, snap.Fund, string(c.Period), c.HHI, c.Gini, c.Entropy, size,
		); err != nil {
			return fmt.Errorf("insert concentration %s: %w", c.Period, err)
		}
	}

	for _, f := range res.Regressions {
		if _, err := tx.Exec(`INSERT INTO regression_results
			(run_id, fund, factor, r2, n_obs,
			 coef_intercept, coef_factor, coef_fund_size,
			 p_intercept, p_factor, p_fund_size)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			snap.RunID, snap.Fund, f.Factor, f.RSquared, f.NObs,
			f.Coefficients[model.RegressorIntercept], f.Coefficients[f.Factor], f.Coefficients[model.RegressorFundSize],
			f.PValues[model.RegressorIntercept], f.PValues[f.Factor], f.PValues[model.RegressorFundSize],
		); err != nil {
			return fmt.Errorf("insert regression %s: %w", f.Factor, err)
		}
	}

	for _, factor := range model.Factors {
		ferr, ok := res.FactorErrors[factor]
		if !ok {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO factor_failures (run_id, fund, factor, error) VALUES (?,?,?,?)`,
			snap.RunID, snap.Fund, factor, ferr.Error(),
		); err != nil {
			return fmt.Errorf("insert factor failure %s: %w", factor, err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
