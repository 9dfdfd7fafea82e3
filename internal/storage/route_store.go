package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sitebuilder/internal/domain"
)

// RouteStore implements domain.RouteStore on the SQL database.
type RouteStore struct {
	db *DB
}

func NewRouteStore(db *DB) *RouteStore {
	return &RouteStore{db: db}
}

func (s *RouteStore) ListRoutes(ctx context.Context, storeID string) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT route FROM routes WHERE store_id = ? ORDER BY route`), storeID)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	routes := []string{}
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (s *RouteStore) GetRoute(ctx context.Context, storeID, route string) (*domain.RouteDocument, error) {
	var (
		lg, sm           string
		created, updated int64
		doc              = &domain.RouteDocument{StoreID: storeID, Route: route}
	)
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT lg_content, sm_content, version, created_at, updated_at
		 FROM routes WHERE store_id = ? AND route = ?`), storeID, route,
	).Scan(&lg, &sm, &doc.Version, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("route %s: %w", route, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", route, err)
	}

	if doc.LgContent, err = decodeLayout(lg); err != nil {
		return nil, fmt.Errorf("decode %s lg content: %w", route, err)
	}
	if doc.SmContent, err = decodeLayout(sm); err != nil {
		return nil, fmt.Errorf("decode %s sm content: %w", route, err)
	}
	doc.CreatedAt = time.Unix(0, created)
	doc.UpdatedAt = time.Unix(0, updated)
	return doc, nil
}

func (s *RouteStore) CreateRoute(ctx context.Context, storeID, route string) (*domain.RouteDocument, error) {
	content, err := json.Marshal(domain.NewRouteLayout(route))
	if err != nil {
		return nil, fmt.Errorf("encode route layout: %w", err)
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.exists(ctx, tx, storeID, route)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("route %s: %w", route, domain.ErrRouteExists)
	}

	now := s.db.now()
	if _, err := tx.ExecContext(ctx, s.db.rebind(
		`INSERT INTO routes (store_id, route, lg_content, sm_content, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		storeID, route, string(content), string(content), domain.DocumentVersion, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert route %s: %w", route, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &domain.RouteDocument{
		StoreID:   storeID,
		Route:     route,
		LgContent: domain.NewRouteLayout(route),
		SmContent: domain.NewRouteLayout(route),
		Version:   domain.DocumentVersion,
		CreatedAt: time.Unix(0, now),
		UpdatedAt: time.Unix(0, now),
	}, nil
}

func (s *RouteStore) SaveLayout(ctx context.Context, storeID, route string, mode domain.Mode, l *domain.Layout) error {
	column := "lg_content"
	if mode == domain.ModeSmall {
		column = "sm_content"
	}
	content, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.exists(ctx, tx, storeID, route)
	if err != nil {
		return err
	}
	now := s.db.now()
	if exists {
		_, err = tx.ExecContext(ctx, s.db.rebind(
			`UPDATE routes SET `+column+` = ?, updated_at = ? WHERE store_id = ? AND route = ?`),
			string(content), now, storeID, route)
	} else {
		empty, _ := json.Marshal(domain.EmptyLayout())
		lg, sm := string(content), string(empty)
		if mode == domain.ModeSmall {
			lg, sm = sm, lg
		}
		_, err = tx.ExecContext(ctx, s.db.rebind(
			`INSERT INTO routes (store_id, route, lg_content, sm_content, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			storeID, route, lg, sm, domain.DocumentVersion, now, now)
	}
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", route, mode, err)
	}
	return tx.Commit()
}

func (s *RouteStore) DeleteRoute(ctx context.Context, storeID, route string) error {
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`DELETE FROM routes WHERE store_id = ? AND route = ?`), storeID, route)
	if err != nil {
		return fmt.Errorf("delete route %s: %w", route, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("route %s: %w", route, domain.ErrNotFound)
	}
	return nil
}

// Close is a no-op; the owner of DB closes the connection.
func (s *RouteStore) Close() error {
	return nil
}

func (s *RouteStore) exists(ctx context.Context, tx *sql.Tx, storeID, route string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, s.db.rebind(
		`SELECT COUNT(*) FROM routes WHERE store_id = ? AND route = ?`), storeID, route).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup route %s: %w", route, err)
	}
	return n > 0, nil
}

func decodeLayout(s string) (*domain.Layout, error) {
	var l domain.Layout
	if err := json.Unmarshal([]byte(s), &l); err != nil {
		return nil, err
	}
	if l.Sections.Children.Sections == nil {
		l.Sections.Children.Sections = []domain.Section{}
	}
	if l.Sections.Children.Order == nil {
		l.Sections.Children.Order = []string{}
	}
	return &l, nil
}
