package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/domain"
)

// DefaultMaxHistory is how many versions a document keeps.
const DefaultMaxHistory = 50

// HistoryStore implements domain.HistoryStore on the SQL database.
type HistoryStore struct {
	db       *DB
	maxNodes int
}

// NewHistoryStore keeps at most maxNodes versions per document; values
// below 2 use DefaultMaxHistory.
func NewHistoryStore(db *DB, maxNodes int) *HistoryStore {
	if maxNodes < 2 {
		maxNodes = DefaultMaxHistory
	}
	return &HistoryStore{db: db, maxNodes: maxNodes}
}

// LoadTree returns the full version tree for a document.
func (s *HistoryStore) LoadTree(ctx context.Context, docKey string) (*domain.HistoryTree, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id, doc_key, parent_id, label, command_json, snapshot_json, created_at
		 FROM history_nodes WHERE doc_key = ? ORDER BY created_at ASC`), docKey,
	)
	if err != nil {
		return nil, fmt.Errorf("load history nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.HistoryNode
	var rootID string
	for rows.Next() {
		var (
			n       domain.HistoryNode
			parent  sql.NullString
			created int64
		)
		if err := rows.Scan(&n.ID, &n.DocKey, &parent, &n.Label, &n.CommandJSON, &n.SnapshotJSON, &created); err != nil {
			return nil, fmt.Errorf("scan history node: %w", err)
		}
		if parent.Valid {
			n.ParentID = &parent.String
		} else if rootID == "" {
			rootID = n.ID
		}
		n.CreatedAt = time.Unix(0, created)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	currentID, err := s.current(ctx, docKey)
	if err != nil {
		return nil, err
	}
	if currentID == "" {
		currentID = nodes[len(nodes)-1].ID
	}
	return &domain.HistoryTree{Nodes: nodes, CurrentID: currentID, RootID: rootID}, nil
}

// PushNode records a new version under parentID and makes it current.
func (s *HistoryStore) PushNode(ctx context.Context, docKey, parentID, label, commandJSON, snapshotJSON string) (*domain.HistoryNode, error) {
	node := &domain.HistoryNode{
		ID:           uuid.NewString(),
		DocKey:       docKey,
		Label:        label,
		CommandJSON:  commandJSON,
		SnapshotJSON: snapshotJSON,
	}
	if parentID != "" {
		node.ParentID = &parentID
	}
	now := s.db.now()
	node.CreatedAt = time.Unix(0, now)

	if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO history_nodes (id, doc_key, parent_id, label, command_json, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		node.ID, docKey, node.ParentID, label, commandJSON, snapshotJSON, now,
	); err != nil {
		return nil, fmt.Errorf("insert history node: %w", err)
	}
	if err := s.GoTo(ctx, docKey, node.ID); err != nil {
		return nil, err
	}
	if err := s.pruneDoc(ctx, docKey, s.maxNodes); err != nil {
		return nil, err
	}
	return node, nil
}

// GoTo moves the current pointer of docKey.
func (s *HistoryStore) GoTo(ctx context.Context, docKey, nodeID string) error {
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`UPDATE history_state SET current_node_id = ? WHERE doc_key = ?`), nodeID, docKey)
	if err != nil {
		return fmt.Errorf("update history state: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// MySQL reports 0 affected rows when the value is unchanged.
	if cur, err := s.current(ctx, docKey); err == nil && cur == nodeID {
		return nil
	}
	if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO history_state (doc_key, current_node_id) VALUES (?, ?)`), docKey, nodeID); err != nil {
		return fmt.Errorf("insert history state: %w", err)
	}
	return nil
}

// ClearDoc removes all history for a document.
func (s *HistoryStore) ClearDoc(ctx context.Context, docKey string) error {
	if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM history_state WHERE doc_key = ?`), docKey); err != nil {
		return fmt.Errorf("clear history state: %w", err)
	}
	if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM history_nodes WHERE doc_key = ?`), docKey); err != nil {
		return fmt.Errorf("clear history nodes: %w", err)
	}
	return nil
}

// Prune trims every document to at most maxNodes versions.
func (s *HistoryStore) Prune(ctx context.Context, maxNodes int) error {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT doc_key FROM history_nodes GROUP BY doc_key`)
	if err != nil {
		return fmt.Errorf("list history docs: %w", err)
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return fmt.Errorf("scan doc key: %w", err)
		}
		keys = append(keys, k)
	}
	rows.Close()

	var errs []error
	for _, k := range keys {
		errs = append(errs, s.pruneDoc(ctx, k, maxNodes))
	}
	return errors.Join(errs...)
}

func (s *HistoryStore) current(ctx context.Context, docKey string) (string, error) {
	var id string
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT current_node_id FROM history_state WHERE doc_key = ?`), docKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load history state: %w", err)
	}
	return id, nil
}

// pruneDoc removes the oldest nodes above maxNodes, never the current one.
// Children of a removed node are re-attached to its parent.
func (s *HistoryStore) pruneDoc(ctx context.Context, docKey string, maxNodes int) error {
	var count int
	if err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT COUNT(*) FROM history_nodes WHERE doc_key = ?`), docKey).Scan(&count); err != nil {
		return fmt.Errorf("count history nodes: %w", err)
	}
	if count <= maxNodes {
		return nil
	}

	currentID, err := s.current(ctx, docKey)
	if err != nil {
		return err
	}

	// collect first; SQLite runs on a single connection
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id FROM history_nodes WHERE doc_key = ?
		 ORDER BY created_at ASC LIMIT ?`), docKey, count-maxNodes+1)
	if err != nil {
		return fmt.Errorf("select oldest history nodes: %w", err)
	}
	var victims []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan history node: %w", err)
		}
		if id != currentID {
			victims = append(victims, id)
		}
	}
	rows.Close()
	if len(victims) > count-maxNodes {
		victims = victims[:count-maxNodes]
	}

	for _, id := range victims {
		// read the parent now; an earlier deletion may have re-attached it
		var parent sql.NullString
		if err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
			`SELECT parent_id FROM history_nodes WHERE id = ?`), id).Scan(&parent); err != nil {
			return fmt.Errorf("load history parent: %w", err)
		}
		if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(
			`UPDATE history_nodes SET parent_id = ? WHERE parent_id = ?`), parent, id); err != nil {
			return fmt.Errorf("reparent history nodes: %w", err)
		}
		if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(
			`DELETE FROM history_nodes WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete history node: %w", err)
		}
	}
	return nil
}
