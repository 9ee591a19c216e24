package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:assess.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/assess?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer at a time; units of work queue on the pool instead of failing with SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates missing tables. Statements are idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL,
  status TEXT NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  attempts_grading TEXT NOT NULL DEFAULT '',
  passing_marks REAL NOT NULL DEFAULT 0,
  total_marks REAL NOT NULL DEFAULT 0,
  is_objective BOOLEAN NOT NULL DEFAULT 1,
  duration_sec INTEGER NOT NULL DEFAULT 0,
  start_date INTEGER,
  end_date INTEGER,
  single_submission BOOLEAN NOT NULL DEFAULT 0,
  parent_test_id TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
  id TEXT PRIMARY KEY,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  title TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL DEFAULT 0,
  min_questions INTEGER,
  max_questions INTEGER
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  type TEXT NOT NULL,
  text TEXT NOT NULL DEFAULT '',
  marks REAL NOT NULL,
  allow_partial_scoring BOOLEAN NOT NULL DEFAULT 0,
  parent_id TEXT NOT NULL DEFAULT '',
  grading_type TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  difficulty TEXT NOT NULL DEFAULT '',
  tags_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL,
  params_json TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS questions_tenant_status ON questions (tenant_id, status, created_at);

CREATE TABLE IF NOT EXISTS question_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL DEFAULT '',
  is_correct BOOLEAN NOT NULL DEFAULT 0,
  marks REAL NOT NULL DEFAULT 0,
  blank_index INTEGER NOT NULL DEFAULT 0,
  case_sensitive BOOLEAN NOT NULL DEFAULT 0,
  match_with TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS test_questions (
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES questions(id),
  section_id TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL,
  rule_id TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (test_id, question_id)
);

CREATE TABLE IF NOT EXISTS rules (
  id TEXT PRIMARY KEY,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  section_id TEXT NOT NULL DEFAULT '',
  number_of_questions INTEGER NOT NULL,
  pool_size INTEGER NOT NULL DEFAULT 0,
  selection_strategy TEXT NOT NULL,
  selection_mode TEXT NOT NULL,
  criteria_json TEXT NOT NULL DEFAULT '{}',
  question_ids_json TEXT NOT NULL DEFAULT '[]',
  priority INTEGER NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  org_id TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id),
  seq INTEGER NOT NULL,
  resolved_test_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  review_status TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  result TEXT,
  current_position INTEGER NOT NULL DEFAULT 0,
  time_spent_sec INTEGER NOT NULL DEFAULT 0,
  started_at INTEGER NOT NULL,
  submitted_at INTEGER,
  reviewed_by TEXT NOT NULL DEFAULT '',
  reviewed_at INTEGER,
  review_remarks TEXT NOT NULL DEFAULT '',
  UNIQUE (test_id, user_id, seq)
);

CREATE TABLE IF NOT EXISTS user_answers (
  attempt_id TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  score REAL,
  review_status TEXT NOT NULL,
  reviewer_id TEXT NOT NULL DEFAULT '',
  remarks TEXT NOT NULL DEFAULT '',
  reviewed_at INTEGER,
  time_spent_sec INTEGER NOT NULL DEFAULT 0,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,          -- e.g. attempt.submitted
  key TEXT NOT NULL,          -- natural key: attemptID
  tenant_id TEXT NOT NULL DEFAULT '',
  org_id TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,         -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL,
  status TEXT NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  attempts_grading TEXT NOT NULL DEFAULT '',
  passing_marks DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_marks DOUBLE PRECISION NOT NULL DEFAULT 0,
  is_objective BOOLEAN NOT NULL DEFAULT TRUE,
  duration_sec INTEGER NOT NULL DEFAULT 0,
  start_date BIGINT,
  end_date BIGINT,
  single_submission BOOLEAN NOT NULL DEFAULT FALSE,
  parent_test_id TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
  id TEXT PRIMARY KEY,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  title TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL DEFAULT 0,
  min_questions INTEGER,
  max_questions INTEGER
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  type TEXT NOT NULL,
  text TEXT NOT NULL DEFAULT '',
  marks DOUBLE PRECISION NOT NULL,
  allow_partial_scoring BOOLEAN NOT NULL DEFAULT FALSE,
  parent_id TEXT NOT NULL DEFAULT '',
  grading_type TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  difficulty TEXT NOT NULL DEFAULT '',
  tags_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL,
  params_json TEXT NOT NULL DEFAULT '{}',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS questions_tenant_status ON questions (tenant_id, status, created_at);

CREATE TABLE IF NOT EXISTS question_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL DEFAULT '',
  is_correct BOOLEAN NOT NULL DEFAULT FALSE,
  marks DOUBLE PRECISION NOT NULL DEFAULT 0,
  blank_index INTEGER NOT NULL DEFAULT 0,
  case_sensitive BOOLEAN NOT NULL DEFAULT FALSE,
  match_with TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS test_questions (
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES questions(id),
  section_id TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL,
  rule_id TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (test_id, question_id)
);

CREATE TABLE IF NOT EXISTS rules (
  id TEXT PRIMARY KEY,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  section_id TEXT NOT NULL DEFAULT '',
  number_of_questions INTEGER NOT NULL,
  pool_size INTEGER NOT NULL DEFAULT 0,
  selection_strategy TEXT NOT NULL,
  selection_mode TEXT NOT NULL,
  criteria_json TEXT NOT NULL DEFAULT '{}',
  question_ids_json TEXT NOT NULL DEFAULT '[]',
  priority INTEGER NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  org_id TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id),
  seq INTEGER NOT NULL,
  resolved_test_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  review_status TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  result TEXT,
  current_position INTEGER NOT NULL DEFAULT 0,
  time_spent_sec INTEGER NOT NULL DEFAULT 0,
  started_at BIGINT NOT NULL,
  submitted_at BIGINT,
  reviewed_by TEXT NOT NULL DEFAULT '',
  reviewed_at BIGINT,
  review_remarks TEXT NOT NULL DEFAULT '',
  UNIQUE (test_id, user_id, seq)
);

CREATE TABLE IF NOT EXISTS user_answers (
  attempt_id TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  score DOUBLE PRECISION,
  review_status TEXT NOT NULL,
  reviewer_id TEXT NOT NULL DEFAULT '',
  remarks TEXT NOT NULL DEFAULT '',
  reviewed_at BIGINT,
  time_spent_sec INTEGER NOT NULL DEFAULT 0,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  tenant_id TEXT NOT NULL DEFAULT '',
  org_id TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
