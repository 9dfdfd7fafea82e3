package domain

import (
	"context"
	"time"
)

// HistoryNode is one recorded version of a document. CommandJSON is the
// command that produced SnapshotJSON from the parent's snapshot.
type HistoryNode struct {
	ID           string    `json:"id"`
	DocKey       string    `json:"docKey"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	CommandJSON  string    `json:"commandJson"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryTree is every retained version of a document plus the pointer to
// the version currently live in the route store.
type HistoryTree struct {
	Nodes     []HistoryNode `json:"nodes"`
	CurrentID string        `json:"currentId"`
	RootID    string        `json:"rootId"`
}

// Node returns the node with the given ID.
func (t *HistoryTree) Node(id string) (*HistoryNode, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// LatestChild returns the most recently created child of id.
func (t *HistoryTree) LatestChild(id string) (*HistoryNode, bool) {
	var latest *HistoryNode
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.ParentID == nil || *n.ParentID != id {
			continue
		}
		if latest == nil || !n.CreatedAt.Before(latest.CreatedAt) {
			latest = n
		}
	}
	return latest, latest != nil
}

// HistoryStore persists version trees.
type HistoryStore interface {
	// LoadTree returns nil, nil when the document has no history yet.
	LoadTree(ctx context.Context, docKey string) (*HistoryTree, error)
	// PushNode appends a node under parentID (empty for a root) and moves the
	// current pointer to it.
	PushNode(ctx context.Context, docKey, parentID, label, commandJSON, snapshotJSON string) (*HistoryNode, error)
	GoTo(ctx context.Context, docKey, nodeID string) error
	ClearDoc(ctx context.Context, docKey string) error
	// Prune drops the oldest nodes of every document above maxNodes.
	Prune(ctx context.Context, maxNodes int) error
}
