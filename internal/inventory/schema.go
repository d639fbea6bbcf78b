package inventory

// ---------------------------------------------------------------------------
// Schema version
// ---------------------------------------------------------------------------

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// ---------------------------------------------------------------------------
// Migration support
// ---------------------------------------------------------------------------

// Migration describes a single schema migration that can be applied to the
// database. Migrations are ordered by Version and are idempotent.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the ordered list of all schema migrations.
// Apply them sequentially; skip any whose Version is already recorded
// in the schema_migrations table.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema — services, service_interfaces, service_dependencies",
		SQL: `
CREATE TABLE IF NOT EXISTS services (
    id               TEXT PRIMARY KEY,
    organization_id  TEXT NOT NULL,
    name             TEXT NOT NULL,
    owner            TEXT NOT NULL DEFAULT '',
    repository       TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    language         TEXT NOT NULL DEFAULT '',
    created_at       DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_services_org  ON services(organization_id);
CREATE INDEX IF NOT EXISTS idx_services_name ON services(name);

CREATE TABLE IF NOT EXISTS service_interfaces (
    id           TEXT PRIMARY KEY,
    service_id   TEXT NOT NULL,
    domain       TEXT NOT NULL DEFAULT '',
    environment  TEXT NOT NULL DEFAULT '',
    branch       TEXT NOT NULL DEFAULT '',
    runtime      TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_interfaces_service ON service_interfaces(service_id);

CREATE TABLE IF NOT EXISTS service_dependencies (
    service_id       TEXT NOT NULL,
    dependency_name  TEXT NOT NULL,
    PRIMARY KEY (service_id, dependency_name),
    FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE CASCADE
);
`,
	},
}
