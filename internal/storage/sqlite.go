package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"classgraph/internal/domain"
	"classgraph/internal/export"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ GraphStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			name TEXT PRIMARY KEY,
			unit TEXT,
			package TEXT,
			kind TEXT,
			access INTEGER,
			super TEXT,
			interfaces JSON,
			signature TEXT,
			source_file TEXT,
			major_version INTEGER,
			record JSON
		);`,
		`CREATE TABLE IF NOT EXISTS members (
			class TEXT,
			ordinal INTEGER,
			kind TEXT,
			name TEXT,
			descriptor TEXT,
			access INTEGER,
			type TEXT,
			PRIMARY KEY (class, name, descriptor)
		);`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			class TEXT,
			member TEXT,
			descriptor TEXT,
			parameter INTEGER,
			type TEXT,
			visible INTEGER,
			properties JSON
		);`,
		`CREATE TABLE IF NOT EXISTS stubs (
			name TEXT PRIMARY KEY
		);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_type ON annotations(type);`,
		`CREATE INDEX IF NOT EXISTS idx_members_class ON members(class);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveGraph replaces the stored snapshot with g in one transaction.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *domain.Graph) error {
	return s.SaveSnapshot(ctx, export.FromGraph(g))
}

// SaveSnapshot replaces the stored snapshot with snap.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap export.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"classes", "members", "annotations", "stubs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	classStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classes (name, unit, package, kind, access, super, interfaces, signature, source_file, major_version, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer classStmt.Close()

	memberStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO members (class, ordinal, kind, name, descriptor, access, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()

	annStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO annotations (class, member, descriptor, parameter, type, visible, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer annStmt.Close()

	insertAnnotations := func(class, member, descriptor string, parameter int, anns []export.Annotation) error {
		for _, a := range anns {
			props, err := json.Marshal(a.Properties)
			if err != nil {
				return fmt.Errorf("failed to encode @%s on %s: %w", a.Type, class, err)
			}
			if _, err := annStmt.ExecContext(ctx, class, member, descriptor, parameter, a.Type, a.Visible, props); err != nil {
				return err
			}
		}
		return nil
	}

	for _, c := range snap.Classes {
		interfaces, err := json.Marshal(c.Interfaces)
		if err != nil {
			return err
		}
		record, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode class %s: %w", c.Name, err)
		}
		if _, err := classStmt.ExecContext(ctx, c.Name, c.Unit, c.Package, c.Kind, c.Access, c.Super, interfaces, c.Signature, c.SourceFile, c.MajorVersion, record); err != nil {
			return err
		}
		if err := insertAnnotations(c.Name, "", "", -1, c.Annotations); err != nil {
			return err
		}

		for i, m := range c.Members {
			if _, err := memberStmt.ExecContext(ctx, c.Name, i, m.Kind, m.Name, m.Descriptor, m.Access, m.Type); err != nil {
				return err
			}
			if err := insertAnnotations(c.Name, m.Name, m.Descriptor, -1, m.Annotations); err != nil {
				return err
			}
			for _, pa := range m.ParameterAnnotations {
				if err := insertAnnotations(c.Name, m.Name, m.Descriptor, pa.Index, pa.Annotations); err != nil {
					return err
				}
			}
		}
	}

	stubStmt, err := tx.PrepareContext(ctx, `INSERT INTO stubs (name) VALUES (?) ON CONFLICT(name) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stubStmt.Close()

	for _, name := range snap.Stubs {
		if _, err := stubStmt.ExecContext(ctx, name); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadSummaries(ctx context.Context) ([]ClassSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.unit, c.package, c.access, c.super, c.interfaces, c.signature, c.source_file,
			(SELECT COUNT(*) FROM members m WHERE m.class = c.name)
		FROM classes c
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var out []ClassSummary
	index := make(map[string]int)
	for rows.Next() {
		var cs ClassSummary
		var interfaces []byte
		if err := rows.Scan(&cs.Name, &cs.Unit, &cs.Package, &cs.Access, &cs.Super, &interfaces, &cs.Signature, &cs.SourceFile, &cs.Members); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		if len(interfaces) > 0 {
			_ = json.Unmarshal(interfaces, &cs.Interfaces)
		}
		index[cs.Name] = len(out)
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	annRows, err := s.db.QueryContext(ctx, `
		SELECT class, type FROM annotations
		WHERE member = '' AND parameter = -1
		ORDER BY class, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query class annotations: %w", err)
	}
	defer annRows.Close()

	for annRows.Next() {
		var class, typ string
		if err := annRows.Scan(&class, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		if i, ok := index[class]; ok {
			out[i].Annotations = append(out[i].Annotations, typ)
		}
	}
	return out, annRows.Err()
}

func (s *SQLiteStore) LoadClass(ctx context.Context, name string) (*export.Class, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, "SELECT record FROM classes WHERE name = ?", name).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	var c export.Class
	if err := json.Unmarshal(record, &c); err != nil {
		return nil, fmt.Errorf("failed to decode class %s: %w", name, err)
	}
	return &c, nil
}

func (s *SQLiteStore) FindAnnotated(ctx context.Context, annotationType string) ([]AnnotationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT class, member, descriptor, parameter, type, visible, properties
		FROM annotations
		WHERE type = ?
		ORDER BY class, member, descriptor, parameter, id
	`, annotationType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnnotationRecord
	for rows.Next() {
		var r AnnotationRecord
		var props []byte
		if err := rows.Scan(&r.Class, &r.Member, &r.Descriptor, &r.Parameter, &r.Type, &r.Visible, &props); err != nil {
			return nil, err
		}
		if len(props) > 0 {
			_ = json.Unmarshal(props, &r.Properties)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Stubs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM stubs ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
