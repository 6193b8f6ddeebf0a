// Package ops exposes the health and status HTTP endpoints.
package ops

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/process"

	"tonebot/contract"
)

// Server is a supervised worker serving the liveness page and a status
// snapshot with process metrics.
type Server struct {
	log     *slog.Logger
	app     *fiber.App
	port    int
	state   func() contract.ConnectionState
	archive contract.Archive
	started time.Time
}

func NewServer(log *slog.Logger, port int, state func() contract.ConnectionState, archive contract.Archive) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	s := &Server{
		log:     log,
		app:     app,
		port:    port,
		state:   state,
		archive: archive,
		started: time.Now(),
	}
	app.Get("/", s.handleRoot)
	app.Get("/status", s.handleStatus)
	return s
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.SendString("WhatsApp Bot is running!")
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	payload := fiber.Map{
		"connection":     s.state(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"pid":            os.Getpid(),
	}

	if s.archive != nil {
		if count, err := s.archive.Count(); err == nil {
			payload["archived_messages"] = count
		} else {
			s.log.Warn("Archive count failed", "error", err)
		}
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			payload["ram_bytes"] = mem.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			payload["cpu_percent"] = cpu
		}
		if status, err := p.Status(); err == nil {
			payload["pid_status"] = status
		}
	}

	return c.JSON(payload)
}

// Run serves until the context ends, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(fmt.Sprintf(":%d", s.port))
	}()

	s.log.Info("Ops server listening", "port", s.port)

	select {
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			s.log.Warn("Ops server shutdown failed", "error", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
