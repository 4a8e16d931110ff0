package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	model "github.com/okian/salesboard/internal/domain/model"
)

// Slot scopes.
const (
	ScopeNational = "NATIONAL"
	ScopeRegion   = "REGION"
)

// SlotContext is what the organisation store knows about an employee. Empty
// fields are unknown and leave the token profile in place.
type SlotContext struct {
	NIK      string
	Name     string
	SlotCode string
	Role     string
	Scope    string
	ScopeID  string
	Region   string
	GRBM     string
}

const (
	employeeQuery = `SELECT nik, COALESCE(full_name, '')
		FROM hr.employees WHERE lower(email) = lower($1) LIMIT 1`
	assignmentQuery = `SELECT slot_code
		FROM hr.assignments
		WHERE nik = $1 AND (end_date IS NULL OR end_date > $2::date)
		LIMIT 1`
	slotQuery = `SELECT COALESCE(role, 'viewer'), COALESCE(scope, ''), COALESCE(scope_id, '')
		FROM master.sales_slots WHERE slot_code = $1 LIMIT 1`
	regionQuery = `SELECT name, COALESCE(grbm_code, '')
		FROM master.ref_regions WHERE region_code = $1 LIMIT 1`
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SlotStore resolves employees to their active sales slot.
type SlotStore struct {
	db   rowQuerier
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenSlotStore connects a pool to dsn and pings it.
func OpenSlotStore(ctx context.Context, dsn string) (*SlotStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres: connection string is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}
	s := newSlotStore(pool)
	s.pool = pool
	return s, nil
}

func newSlotStore(db rowQuerier) *SlotStore {
	return &SlotStore{db: db, now: time.Now}
}

// Close releases the pool when the store owns one.
func (s *SlotStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Lookup resolves email. ErrNotFound means no employee has that email. A
// missing assignment or slot yields a partial context.
func (s *SlotStore) Lookup(ctx context.Context, email string) (SlotContext, error) {
	var sc SlotContext
	if err := s.db.QueryRow(ctx, employeeQuery, email).Scan(&sc.NIK, &sc.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SlotContext{}, ErrNotFound
		}
		return SlotContext{}, fmt.Errorf("employee lookup: %w", err)
	}

	found, err := s.optional(s.db.QueryRow(ctx, assignmentQuery, sc.NIK, s.now()).Scan(&sc.SlotCode))
	if err != nil || !found {
		return sc, wrapLookup("assignment lookup", err)
	}

	found, err = s.optional(s.db.QueryRow(ctx, slotQuery, sc.SlotCode).Scan(&sc.Role, &sc.Scope, &sc.ScopeID))
	if err != nil || !found {
		return sc, wrapLookup("slot lookup", err)
	}

	sc.Region = sc.ScopeID
	if sc.Region == "" || sc.Scope == ScopeNational {
		sc.Region = model.AllRegions
	}
	if sc.Scope == ScopeRegion && sc.Region != model.AllRegions {
		var name, grbm string
		found, err = s.optional(s.db.QueryRow(ctx, regionQuery, sc.Region).Scan(&name, &grbm))
		if err != nil {
			return sc, wrapLookup("region lookup", err)
		}
		if found {
			sc.Region, sc.GRBM = name, grbm
		}
	}
	return sc, nil
}

func (s *SlotStore) optional(err error) (bool, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func wrapLookup(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", step, err)
}
