package store

// Schema is the complete qatrack schema. Timestamps are unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL,
    role       TEXT NOT NULL DEFAULT 'ENGINEER',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    id                      INTEGER PRIMARY KEY AUTOINCREMENT,
    po_number               TEXT NOT NULL,
    opa_name                TEXT NOT NULL DEFAULT '',
    qa_field_unit           TEXT NOT NULL DEFAULT '',
    project_classification  TEXT NOT NULL DEFAULT '',
    firm_name               TEXT NOT NULL DEFAULT '',
    po_date                 INTEGER,
    main_equipment          TEXT NOT NULL DEFAULT '',
    order_value             REAL NOT NULL DEFAULT 0,
    engineer_id             INTEGER REFERENCES users(id),
    jcqao_id                INTEGER REFERENCES users(id),
    progress_percentage     REAL NOT NULL DEFAULT 0,
    is_closed               INTEGER NOT NULL DEFAULT 0,
    is_closure_requested    INTEGER NOT NULL DEFAULT 0,
    is_closure_approved     INTEGER NOT NULL DEFAULT 0,
    closure_request_remarks TEXT NOT NULL DEFAULT '',
    created_at              INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_engineer ON projects(engineer_id, is_closed);

-- One stored artifact tied to a project. filename is the on-disk name
-- (token-prefixed, unique within the project folder); original_name is
-- preserved verbatim for display.
CREATE TABLE IF NOT EXISTS documents (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id    INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    type          TEXT NOT NULL,
    filename      TEXT NOT NULL,
    original_name TEXT NOT NULL,
    path          TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id, type);

CREATE TABLE IF NOT EXISTS qap_serials (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id    INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    serial_number TEXT NOT NULL,
    description   TEXT NOT NULL,
    is_completed  INTEGER NOT NULL DEFAULT 0,
    remarks       TEXT NOT NULL DEFAULT '',
    completed_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_qap_serials_project ON qap_serials(project_id);

-- Archival store, independent of per-project documents.
CREATE TABLE IF NOT EXISTS knowledge_bank_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    category      TEXT NOT NULL,
    title         TEXT NOT NULL,
    filename      TEXT NOT NULL,
    original_name TEXT NOT NULL,
    path          TEXT NOT NULL,
    uploaded_by   INTEGER REFERENCES users(id),
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kb_category ON knowledge_bank_items(category, created_at DESC);
`
