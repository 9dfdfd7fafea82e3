package domain

import (
	"context"
	"errors"
	"time"
)

var ErrApprovalNotFound = errors.New("approval not found")

// Approval states.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// PendingAction is a destructive operation waiting for a human decision.
type PendingAction struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Description string    `json:"description"`
	Metadata    string    `json:"metadata"` // JSON with extra context, e.g. the section id
	CreatedAt   time.Time `json:"createdAt"`
}

// ApprovalStore shares approval requests between processes: a standalone
// MCP server writes requests, the HTTP server resolves them.
type ApprovalStore interface {
	InsertApproval(ctx context.Context, a PendingAction) error
	ApprovalStatus(ctx context.Context, id string) (string, error)
	// ResolveApproval returns ErrApprovalNotFound unless id is pending.
	ResolveApproval(ctx context.Context, id string, approved bool) error
	DeleteApproval(ctx context.Context, id string) error
	PendingApprovals(ctx context.Context) ([]PendingAction, error)
}
