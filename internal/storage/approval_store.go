package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sitebuilder/internal/domain"
)

// ApprovalStore keeps MCP approval requests in the mcp_approvals table so a
// stdio MCP process and the HTTP server can hand them to each other.
type ApprovalStore struct {
	db *DB
}

func NewApprovalStore(db *DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

func (s *ApprovalStore) InsertApproval(ctx context.Context, a domain.PendingAction) error {
	created := a.CreatedAt.UnixNano()
	if a.CreatedAt.IsZero() {
		created = s.db.now()
	}
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		a.ID, a.Tool, a.Description, domain.ApprovalPending, a.Metadata, created)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (s *ApprovalStore) ApprovalStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT status FROM mcp_approvals WHERE id = ?`), id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrApprovalNotFound
	}
	if err != nil {
		return "", fmt.Errorf("approval status: %w", err)
	}
	return status, nil
}

func (s *ApprovalStore) ResolveApproval(ctx context.Context, id string, approved bool) error {
	status := domain.ApprovalRejected
	if approved {
		status = domain.ApprovalApproved
	}
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = ?`), status, id, domain.ApprovalPending)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrApprovalNotFound
	}
	return nil
}

func (s *ApprovalStore) DeleteApproval(ctx context.Context, id string) error {
	if _, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM mcp_approvals WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete approval: %w", err)
	}
	return nil
}

func (s *ApprovalStore) PendingApprovals(ctx context.Context) ([]domain.PendingAction, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id, tool, description, metadata, created_at FROM mcp_approvals WHERE status = ? ORDER BY created_at`),
		domain.ApprovalPending)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	out := []domain.PendingAction{}
	for rows.Next() {
		var (
			a       domain.PendingAction
			created int64
		)
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.Metadata, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
