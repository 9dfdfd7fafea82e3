package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sitebuilder/internal/domain"
)

const EventExportCompleted = "export:completed"

// PruneSchedule is when the history tree of every document is trimmed.
const PruneSchedule = "@hourly"

var ErrExportRunning = errors.New("export already running")

// ExportResult is the payload of EventExportCompleted.
type ExportResult struct {
	StoreID string   `json:"storeId"`
	Dir     string   `json:"dir"`
	Files   []string `json:"files"`
}

// ─────────────────────────────────────────────────────────────
// Export Service — route documents as static JSON files
// ─────────────────────────────────────────────────────────────

// ExportService writes the stored layouts of a store to disk in the
// <route><mode>.json layout the storefront reads, and runs the periodic
// maintenance jobs.
type ExportService struct {
	routes     domain.RouteStore
	history    domain.HistoryStore
	maxHistory int
	dir        string
	emitter    EventEmitter
	logger     *zap.Logger
	locks      exportLocks
}

func NewExportService(routes domain.RouteStore, history domain.HistoryStore, maxHistory int, dir string, emitter EventEmitter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		routes:     routes,
		history:    history,
		maxHistory: maxHistory,
		dir:        dir,
		emitter:    emitter,
		logger:     logger.Named("export"),
	}
}

// Export writes both modes of every route of storeID. Concurrent exports of
// the same store return ErrExportRunning.
func (s *ExportService) Export(ctx context.Context, storeID string) (*ExportResult, error) {
	release, ok := s.locks.acquire(storeID)
	if !ok {
		return nil, ErrExportRunning
	}
	defer release()

	names, err := s.routes.ListRoutes(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	dir := filepath.Join(s.dir, storeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	res := &ExportResult{StoreID: storeID, Dir: dir, Files: []string{}}
	for _, name := range names {
		doc, err := s.routes.GetRoute(ctx, storeID, name)
		if errors.Is(err, domain.ErrNotFound) {
			continue // deleted mid-export
		}
		if err != nil {
			return nil, fmt.Errorf("load route %s: %w", name, err)
		}
		for _, mode := range []domain.Mode{domain.ModeLarge, domain.ModeSmall} {
			file := name + string(mode) + ".json"
			if err := writeJSON(filepath.Join(dir, file), doc.Content(mode)); err != nil {
				return nil, err
			}
			res.Files = append(res.Files, file)
		}
	}

	s.logger.Info("export finished", zap.String("store", storeID), zap.Int("files", len(res.Files)))
	s.emitter.Emit(ctx, EventExportCompleted, res)
	return res, nil
}

// writeJSON writes through a temp file so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

// Run schedules the export of storeID on schedule (skipped when empty) and
// history pruning, then blocks until ctx is done and waits for running jobs.
func (s *ExportService) Run(ctx context.Context, schedule, storeID string) error {
	c := cron.New()
	if schedule != "" {
		if _, err := c.AddFunc(schedule, func() {
			if _, err := s.Export(ctx, storeID); err != nil {
				s.logger.Warn("scheduled export failed", zap.String("store", storeID), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("invalid export schedule %q: %w", schedule, err)
		}
	}
	if s.history != nil && s.maxHistory > 0 {
		if _, err := c.AddFunc(PruneSchedule, func() {
			if err := s.history.Prune(ctx, s.maxHistory); err != nil {
				s.logger.Warn("history prune failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.Start()
	s.logger.Info("scheduler started", zap.String("export", schedule), zap.Int("jobs", len(c.Entries())))
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	s.locks.wait(context.Background())
	return nil
}
