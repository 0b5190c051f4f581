// Package api provides the HTTP adapter for policyrag, built on fiber.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/logger"
)

// ErrMissingRetrieverService is returned when the retriever service is not provided.
var ErrMissingRetrieverService = errors.New("api: retriever service is required")

// Config holds configuration for the HTTP server.
type Config struct {
	// AppName is reported by the health endpoint.
	AppName string

	// Version is reported by the health endpoint.
	Version string

	// AllowOrigins lists the CORS origins. Cross-origin requests are
	// refused when empty.
	AllowOrigins []string

	// Policies are the policy documents the server may read. Requests name
	// them; paths never come from the request body.
	Policies []domain.PolicyDocument

	// RequestLogging enables the fiber request logger.
	RequestLogging bool

	// ChatTimeout bounds a single chat completion (default: 5m).
	ChatTimeout time.Duration

	// MaxUploadBytes limits extract uploads (default: 20 MiB).
	MaxUploadBytes int
}

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Retriever driving.RetrieverService
	Extractor driving.ExtractorService
	Chat      driving.ChatService
}

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	ports *Ports
	cfg   Config
}

// NewServer creates the fiber app and registers all routes.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if ports == nil || ports.Retriever == nil {
		return nil, ErrMissingRetrieverService
	}
	if cfg.AppName == "" {
		cfg.AppName = "policyrag"
	}
	if cfg.ChatTimeout == 0 {
		cfg.ChatTimeout = 5 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    cfg.MaxUploadBytes,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ChatTimeout,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if cfg.RequestLogging {
		app.Use(fiberlogger.New())
	}
	if len(cfg.AllowOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
		}))
	}

	s := &Server{app: app, ports: ports, cfg: cfg}
	s.register(app.Group("/api/v1"))
	return s, nil
}

// register sets up the API routes.
func (s *Server) register(router fiber.Router) {
	router.Get("/health", s.Health)
	router.Post("/retrieve", s.Retrieve)
	if s.ports.Extractor != nil {
		router.Post("/extract", s.Extract)
	}
	if s.ports.Chat != nil {
		router.Post("/context", s.Context)
		router.Post("/chat", s.Chat)
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

// resolvePolicies maps the requested policy names onto the configured
// documents. Unknown names are dropped.
func (s *Server) resolvePolicies(requested []domain.PolicyDocument) []domain.PolicyDocument {
	if len(requested) == 0 {
		return nil
	}
	byName := make(map[string]domain.PolicyDocument, len(s.cfg.Policies))
	for _, p := range s.cfg.Policies {
		byName[p.Name] = p
	}

	var out []domain.PolicyDocument
	for _, r := range requested {
		doc, ok := byName[r.Name]
		if !ok {
			logger.Warn("ignoring unknown policy %q", r.Name)
			continue
		}
		if r.Kind != "" {
			doc.Kind = r.Kind
		}
		out = append(out, doc)
	}
	return out
}

// errorHandler renders every error as a JSON body.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
