package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ---------------------------------------------------------------------------
// Storage
// ---------------------------------------------------------------------------

// Storage is a thread-safe wrapper around a SQLite database that persists an
// organization service inventory.
type Storage struct {
	db *sql.DB
	mu sync.RWMutex
}

// ============================= LIFECYCLE ==================================

// New opens (or creates) the SQLite database at dbPath, applies the
// recommended PRAGMAs, runs any pending migrations and returns a ready
// *Storage.
func New(dbPath string) (*Storage, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("inventory: open db %q: %w", dbPath, err)
	}

	// Only one writer at a time for SQLite.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("inventory: set pragma %q: %w", p, err)
		}
	}

	s := &Storage{db: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("inventory: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ============================ MIGRATIONS ==================================

// migrate ensures the schema_migrations table exists, then applies every
// unapplied Migration from the package-level Migrations slice.
func (s *Storage) migrate() error {
	const createMigTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`
	if _, err := s.db.Exec(createMigTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range Migrations {
		var exists int
		err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration v%d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration v%d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
	}
	return nil
}

// ======================== SERVICE OPERATIONS ==============================

// SaveService upserts a single service together with its interfaces and
// dependency names. Child rows are replaced wholesale.
func (s *Storage) SaveService(ctx context.Context, svc *Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("inventory: begin tx (save service): %w", err)
	}
	defer tx.Rollback()

	if err := saveServiceTx(ctx, tx, svc); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveServices batch-upserts services in chunks of 200 inside transactions.
func (s *Storage) SaveServices(ctx context.Context, svcs []*Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const chunkSize = 200
	for i := 0; i < len(svcs); i += chunkSize {
		end := i + chunkSize
		if end > len(svcs) {
			end = len(svcs)
		}
		if err := s.saveServicesChunk(ctx, svcs[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) saveServicesChunk(ctx context.Context, svcs []*Service) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("inventory: begin tx (save services): %w", err)
	}
	defer tx.Rollback()

	for _, svc := range svcs {
		if err := saveServiceTx(ctx, tx, svc); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveServiceTx(ctx context.Context, tx *sql.Tx, svc *Service) error {
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}

	const upsert = `INSERT OR REPLACE INTO services
		(id, organization_id, name, owner, repository, description, language)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, upsert,
		svc.ID, svc.OrganizationID, svc.Name, svc.Owner,
		svc.Repository, svc.Description, svc.Language,
	); err != nil {
		return fmt.Errorf("inventory: save service %q: %w", svc.ID, err)
	}

	// Replace child rows.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM service_interfaces WHERE service_id = ?`, svc.ID); err != nil {
		return fmt.Errorf("inventory: clear interfaces for %q: %w", svc.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM service_dependencies WHERE service_id = ?`, svc.ID); err != nil {
		return fmt.Errorf("inventory: clear dependencies for %q: %w", svc.ID, err)
	}

	for _, in := range svc.Interfaces {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_interfaces (id, service_id, domain, environment, branch, runtime)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), svc.ID, in.Domain, in.Environment, in.Branch, in.Runtime,
		); err != nil {
			return fmt.Errorf("inventory: save interface for %q: %w", svc.ID, err)
		}
	}

	for _, dep := range svc.Dependencies {
		dep = strings.TrimSpace(dep)
		if dep == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO service_dependencies (service_id, dependency_name) VALUES (?, ?)`,
			svc.ID, dep,
		); err != nil {
			return fmt.Errorf("inventory: save dependency for %q: %w", svc.ID, err)
		}
	}
	return nil
}

// GetService retrieves a single service (with interfaces and dependencies)
// by ID. Returns sql.ErrNoRows wrapped when the service does not exist.
func (s *Storage) GetService(ctx context.Context, id string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT id, organization_id, name, owner, repository, description, language
		FROM services WHERE id = ?`
	svc := &Service{}
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&svc.ID, &svc.OrganizationID, &svc.Name, &svc.Owner,
		&svc.Repository, &svc.Description, &svc.Language,
	); err != nil {
		return nil, fmt.Errorf("inventory: get service %q: %w", id, err)
	}
	if err := s.loadChildren(ctx, map[string]*Service{svc.ID: svc}); err != nil {
		return nil, err
	}
	return svc, nil
}

// ListServices returns every service of an organization with interfaces and
// dependency names populated, ordered by name then ID for determinism.
func (s *Storage) ListServices(ctx context.Context, organizationID string) ([]*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT id, organization_id, name, owner, repository, description, language
		FROM services WHERE organization_id = ? ORDER BY name, id`
	rows, err := s.db.QueryContext(ctx, q, organizationID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list services for org %q: %w", organizationID, err)
	}
	defer rows.Close()

	var result []*Service
	byID := make(map[string]*Service)
	for rows.Next() {
		svc := &Service{}
		if err := rows.Scan(
			&svc.ID, &svc.OrganizationID, &svc.Name, &svc.Owner,
			&svc.Repository, &svc.Description, &svc.Language,
		); err != nil {
			return nil, fmt.Errorf("inventory: scan service row: %w", err)
		}
		result = append(result, svc)
		byID[svc.ID] = svc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadChildren(ctx, byID); err != nil {
		return nil, err
	}
	return result, nil
}

// loadChildren populates Interfaces and Dependencies for every service in
// byID. Caller must hold at least the read lock.
func (s *Storage) loadChildren(ctx context.Context, byID map[string]*Service) error {
	if len(byID) == 0 {
		return nil
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	// Interfaces. Ordered by rowid so insertion order survives a round trip;
	// the id column is a random UUID and sorts arbitrarily.
	qi := fmt.Sprintf(`SELECT service_id, domain, environment, branch, runtime
		FROM service_interfaces WHERE service_id IN (%s) ORDER BY service_id, rowid`, placeholders)
	rows, err := s.db.QueryContext(ctx, qi, args...)
	if err != nil {
		return fmt.Errorf("inventory: load interfaces: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sid string
		var in Interface
		if err := rows.Scan(&sid, &in.Domain, &in.Environment, &in.Branch, &in.Runtime); err != nil {
			return fmt.Errorf("inventory: scan interface row: %w", err)
		}
		if svc, ok := byID[sid]; ok {
			svc.Interfaces = append(svc.Interfaces, in)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Dependencies.
	qd := fmt.Sprintf(`SELECT service_id, dependency_name
		FROM service_dependencies WHERE service_id IN (%s) ORDER BY service_id, dependency_name`, placeholders)
	depRows, err := s.db.QueryContext(ctx, qd, args...)
	if err != nil {
		return fmt.Errorf("inventory: load dependencies: %w", err)
	}
	defer depRows.Close()
	for depRows.Next() {
		var sid, dep string
		if err := depRows.Scan(&sid, &dep); err != nil {
			return fmt.Errorf("inventory: scan dependency row: %w", err)
		}
		if svc, ok := byID[sid]; ok {
			svc.Dependencies = append(svc.Dependencies, dep)
		}
	}
	return depRows.Err()
}

// DeleteService removes a service; interface and dependency rows are
// cascade-deleted via foreign key constraints.
func (s *Storage) DeleteService(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id); err != nil {
		return fmt.Errorf("inventory: delete service %q: %w", id, err)
	}
	return nil
}

// CountServices returns how many services an organization has.
func (s *Storage) CountServices(ctx context.Context, organizationID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM services WHERE organization_id = ?`, organizationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("inventory: count services for org %q: %w", organizationID, err)
	}
	return n, nil
}
