package server

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pim-sync/core/logger"
	"pim-sync/core/middleware/auth"
	"pim-sync/core/middleware/rayid"
	"pim-sync/core/reconcile"
	"pim-sync/core/record"
)

// SyncFunc runs one reconciliation for the given record kind.
type SyncFunc func(ctx context.Context, kind record.Kind) (*reconcile.Summary, error)

// RunRecord is one entry of the in-memory run history.
type RunRecord struct {
	ID        string             `json:"id"`
	Kind      record.Kind        `json:"kind"`
	StartedAt time.Time          `json:"started_at"`
	Summary   *reconcile.Summary `json:"summary,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Server is the HTTP status API around the sync engine.
type Server struct {
	cfg    Config
	log    *zap.Logger
	syncFn SyncFunc

	mu      sync.Mutex
	running bool
	history []RunRecord
}

// New wires the server. syncFn is invoked synchronously by the trigger
// endpoint.
func New(cfg Config, syncFn SyncFunc, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, log: log, syncFn: syncFn}
}

// App builds the Fiber application with all middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(s.log, c)
		l.Info("request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("request failed", zap.Error(err))
		}
		return err
	})

	app.Get("/health", s.handleHealth)
	app.Get("/runs", s.handleRuns)
	app.Get("/runs/latest", s.handleLatestRun)
	app.Post("/sync/:kind", auth.New(s.cfg.ApiKey), s.handleSync)

	return app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleRuns(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunRecord, len(s.history))
	copy(out, s.history)
	return c.JSON(out)
}

func (s *Server) handleLatestRun(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no runs yet")
	}
	return c.JSON(s.history[len(s.history)-1])
}

func (s *Server) handleSync(c *fiber.Ctx) error {
	var kind record.Kind
	switch c.Params("kind") {
	case "calendar":
		kind = record.KindEvent
	case "contacts":
		kind = record.KindContact
	default:
		return fiber.NewError(fiber.StatusBadRequest, "kind must be calendar or contacts")
	}

	// A single run at a time; the engine is not safe against concurrent
	// passes over the same stores.
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fiber.NewError(fiber.StatusConflict, "a sync is already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	run := RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
	}
	summary, err := s.syncFn(c.Context(), kind)
	run.Summary = summary
	if err != nil {
		run.Error = err.Error()
	}

	s.mu.Lock()
	s.history = append(s.history, run)
	s.mu.Unlock()

	if err != nil {
		s.log.Error("sync run failed", zap.String("run_id", run.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(run)
	}
	return c.JSON(run)
}
