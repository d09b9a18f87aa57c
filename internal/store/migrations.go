package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	id       TEXT PRIMARY KEY,
	user_id  INTEGER NOT NULL UNIQUE,
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	user_id         INTEGER NOT NULL,
	id_notificacion INTEGER NOT NULL,
	position        INTEGER NOT NULL,
	titulo          TEXT NOT NULL,
	descripcion     TEXT NOT NULL DEFAULT '',
	leida           INTEGER NOT NULL DEFAULT 0 CHECK(leida IN (0, 1)),
	fecha_creacion  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, id_notificacion)
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_position
	ON notifications(user_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE notifications ADD COLUMN id_estudiante INTEGER;
ALTER TABLE notifications ADD COLUMN id_psicologo INTEGER;

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
