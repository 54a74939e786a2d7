//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore persists the code context graph in an embedded KuzuDB database.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore opens a file-based KuzuDB at dbPath. KuzuDB creates the leaf
// directory itself for new databases; the parent must exist beforehand.
// Pass ":memory:" for an ephemeral database.
func NewKuzuStore(dbPath string) (*KuzuStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
		}
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ddlStatements is the Cypher DDL executed by InitSchema. Node tables must
// precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		id STRING,
		name STRING,
		kind STRING,
		file_path STRING,
		line INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS CALLS(FROM Symbol TO Symbol, file_path STRING)`,
}

// InitSchema creates the node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// SaveGraph persists every file, node, and edge of the sealed graph.
// MERGE keeps repeated runs over the same database idempotent.
func (s *KuzuStore) SaveGraph(_ context.Context, g *Graph) error {
	for _, f := range g.Files() {
		if err := s.exec(
			"MERGE (f:File {path: $path})",
			map[string]any{"path": f},
		); err != nil {
			return err
		}
	}
	for _, n := range g.Nodes() {
		if err := s.exec(
			`MERGE (s:Symbol {id: $id})
			 ON CREATE SET s.name = $name, s.kind = $kind, s.file_path = $fp, s.line = $line
			 ON MATCH SET s.name = $name, s.kind = $kind, s.file_path = $fp, s.line = $line`,
			map[string]any{
				"id":   n.ID,
				"name": n.Name,
				"kind": string(n.Kind),
				"fp":   n.FilePath,
				"line": int64(n.Line),
			},
		); err != nil {
			return err
		}
	}
	for _, e := range g.Edges() {
		if err := s.exec(
			`MATCH (a:Symbol {id: $src}), (b:Symbol {id: $dst})
			 MERGE (a)-[r:CALLS]->(b)
			 ON CREATE SET r.file_path = $fp
			 ON MATCH SET r.file_path = $fp`,
			map[string]any{
				"src": e.SourceID,
				"dst": e.TargetID,
				"fp":  e.FilePath,
			},
		); err != nil {
			return err
		}
	}
	return nil
}

// Stats counts the stored files and symbols by kind.
func (s *KuzuStore) Stats(_ context.Context) (Stats, error) {
	files, err := s.countRows("MATCH (f:File) RETURN count(f)", nil)
	if err != nil {
		return Stats{}, err
	}
	funcs, err := s.countRows(
		"MATCH (s:Symbol {kind: $kind}) RETURN count(s)",
		map[string]any{"kind": string(SymbolKindFunction)},
	)
	if err != nil {
		return Stats{}, err
	}
	classes, err := s.countRows(
		"MATCH (s:Symbol {kind: $kind}) RETURN count(s)",
		map[string]any{"kind": string(SymbolKindClass)},
	)
	if err != nil {
		return Stats{}, err
	}
	return Stats{FilesAnalyzed: files, Functions: funcs, Classes: classes}, nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// countRows runs a single-value count query.
func (s *KuzuStore) countRows(cypher string, params map[string]any) (int, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return 0, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return 0, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	if !res.HasNext() {
		return 0, nil
	}
	tuple, err := res.Next()
	if err != nil {
		return 0, fmt.Errorf("kuzu: next: %w", err)
	}
	vals, err := tuple.GetAsSlice()
	if err != nil {
		return 0, fmt.Errorf("kuzu: row values: %w", err)
	}
	if len(vals) == 0 {
		return 0, nil
	}
	if n, ok := vals[0].(int64); ok {
		return int(n), nil
	}
	return 0, nil
}
