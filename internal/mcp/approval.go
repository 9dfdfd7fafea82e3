package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/domain"
)

// Approval events.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

const (
	DefaultApprovalTimeout = 120 * time.Second
	pollInterval           = 500 * time.Millisecond
)

var (
	ErrRejected = errors.New("action rejected by user")
	ErrTimeout  = errors.New("approval timed out")
)

// EventEmitter allows the approval queue to notify editors.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

type pendingEntry struct {
	action domain.PendingAction
	result chan bool
}

// ApprovalQueue manages human-in-the-loop approval for destructive MCP tool
// calls. It supports two modes:
//   - In-process (MCP served by the HTTP server): channels plus events.
//   - Store-based (standalone stdio MCP): requests are written to the
//     approval store and polled until the HTTP server resolves them.
//
// A queue used by the HTTP server may also watch a store, so approvals
// requested by a standalone process show up and resolve next to its own.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]*pendingEntry
	emitter EventEmitter
	timeout time.Duration

	store    domain.ApprovalStore
	viaStore bool
}

func NewApprovalQueue(emitter EventEmitter, timeout time.Duration) *ApprovalQueue {
	if timeout <= 0 {
		timeout = DefaultApprovalTimeout
	}
	return &ApprovalQueue{
		pending: make(map[string]*pendingEntry),
		emitter: emitter,
		timeout: timeout,
	}
}

// SetStore routes this queue's requests through store (standalone mode).
func (q *ApprovalQueue) SetStore(store domain.ApprovalStore) {
	q.store = store
	q.viaStore = true
}

// WatchStore lists and resolves requests other processes wrote to store.
func (q *ApprovalQueue) WatchStore(store domain.ApprovalStore) {
	q.store = store
}

// Request blocks until the action is approved, rejected or times out.
// metadata is optional JSON with extra context.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description, metadata string) error {
	if metadata == "" {
		metadata = "{}"
	}
	action := domain.PendingAction{
		ID:          uuid.NewString(),
		Tool:        tool,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if q.viaStore {
		return q.requestViaStore(ctx, action)
	}
	return q.requestViaChannel(ctx, action)
}

func (q *ApprovalQueue) requestViaStore(ctx context.Context, action domain.PendingAction) error {
	if err := q.store.InsertApproval(ctx, action); err != nil {
		return err
	}
	// cleanup must survive a cancelled request context
	defer q.store.DeleteApproval(context.WithoutCancel(ctx), action.ID)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.ApprovalStatus(ctx, action.ID)
			if err != nil {
				continue
			}
			switch status {
			case domain.ApprovalApproved:
				return nil
			case domain.ApprovalRejected:
				return fmt.Errorf("%w: %s", ErrRejected, action.Tool)
			}
		case <-deadline.C:
			return fmt.Errorf("%w after %s: %s", ErrTimeout, q.timeout, action.Tool)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(ctx context.Context, action domain.PendingAction) error {
	entry := &pendingEntry{action: action, result: make(chan bool, 1)}
	q.mu.Lock()
	q.pending[action.ID] = entry
	q.mu.Unlock()
	defer q.cleanup(action.ID)

	q.emitter.Emit(ctx, EventApprovalRequired, action)

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case approved := <-entry.result:
		if !approved {
			return fmt.Errorf("%w: %s", ErrRejected, action.Tool)
		}
		return nil
	case <-timer.C:
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		return fmt.Errorf("%w after %s: %s", ErrTimeout, q.timeout, action.Tool)
	case <-ctx.Done():
		q.emitter.Emit(context.WithoutCancel(ctx), EventApprovalDismissed, map[string]string{"id": action.ID})
		return ctx.Err()
	}
}

// Approve resolves a pending action as approved.
func (q *ApprovalQueue) Approve(ctx context.Context, id string) error {
	return q.resolve(ctx, id, true)
}

// Reject resolves a pending action as rejected.
func (q *ApprovalQueue) Reject(ctx context.Context, id string) error {
	return q.resolve(ctx, id, false)
}

func (q *ApprovalQueue) resolve(ctx context.Context, id string, approved bool) error {
	q.mu.Lock()
	entry, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	q.mu.Unlock()
	if ok {
		entry.result <- approved
		return nil
	}
	if q.store != nil {
		return q.store.ResolveApproval(ctx, id, approved)
	}
	return domain.ErrApprovalNotFound
}

// Pending lists actions waiting for a decision, oldest first.
func (q *ApprovalQueue) Pending(ctx context.Context) ([]domain.PendingAction, error) {
	q.mu.Lock()
	out := make([]domain.PendingAction, 0, len(q.pending))
	for _, e := range q.pending {
		out = append(out, e.action)
	}
	q.mu.Unlock()

	if q.store != nil {
		remote, err := q.store.PendingApprovals(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, remote...)
	}
	sortActions(out)
	return out, nil
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
