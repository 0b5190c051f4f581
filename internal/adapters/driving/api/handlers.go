package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/logger"
)

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

type contextResponse struct {
	SystemMessage string                  `json:"systemMessage"`
	Sections      []domain.Section        `json:"sections"`
	Chunks        []domain.RetrievedChunk `json:"chunks"`
}

type extractResponse struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	OK     bool   `json:"ok"`
	Format string `json:"format"`
	Error  string `json:"error,omitempty"`
}

// Health reports that the server is up.
func (s *Server) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"app":     s.cfg.AppName,
		"version": s.cfg.Version,
	})
}

// Retrieve returns the knowledge base context for a query.
func (s *Server) Retrieve(c fiber.Ctx) error {
	var body retrieveRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}

	result := s.ports.Retriever.RetrieveContext(c.Context(), body.Query, body.TopK)
	if result.Chunks == nil {
		result.Chunks = []domain.RetrievedChunk{}
	}
	return c.JSON(result)
}

// Context returns the assembled system message for a chat request without
// calling the language model.
func (s *Server) Context(c fiber.Ctx) error {
	var req domain.ChatRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Policies = s.resolvePolicies(req.Policies)

	assembled, retrieval := s.ports.Chat.BuildContext(c.Context(), req)
	chunks := retrieval.Chunks
	if chunks == nil {
		chunks = []domain.RetrievedChunk{}
	}
	return c.JSON(contextResponse{
		SystemMessage: assembled.String(),
		Sections:      assembled.Sections,
		Chunks:        chunks,
	})
}

// Extract extracts text from an uploaded document (multipart field "file").
func (s *Server) Extract(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	maxChars := 0
	if v := c.FormValue("maxChars"); v != "" {
		maxChars, err = strconv.Atoi(v)
		if err != nil || maxChars < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "maxChars must be a non-negative integer"})
		}
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	ext := s.ports.Extractor.Extract(c.Context(), data, fh.Header.Get("Content-Type"), fh.Filename, maxChars)
	resp := extractResponse{
		Name:   fh.Filename,
		Text:   ext.Text,
		OK:     ext.OK,
		Format: ext.Format.String(),
	}
	if ext.Err != nil {
		resp.Error = ext.Err.Error()
	}

	status := fiber.StatusOK
	if !ext.OK {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(resp)
}

// Chat runs a completion. The answer is streamed as plain text unless the
// query parameter stream=false asks for a single JSON response.
func (s *Server) Chat(c fiber.Ctx) error {
	var req domain.ChatRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "messages are required"})
	}
	req.Policies = s.resolvePolicies(req.Policies)

	stream := true
	if v := c.Query("stream"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "stream must be a boolean"})
		}
		stream = parsed
	}

	if !stream {
		ctx, cancel := context.WithTimeout(c.Context(), s.cfg.ChatTimeout)
		defer cancel()

		resp, err := s.ports.Chat.Chat(ctx, req, io.Discard)
		if err != nil {
			return c.Status(chatErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(resp)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	timeout := s.cfg.ChatTimeout
	return c.SendStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := s.ports.Chat.Chat(ctx, req, &flushWriter{w: w}); err != nil {
			logger.Warn("chat stream failed: %v", err)
			fmt.Fprintf(w, "\n\n[error: %s]", err.Error())
			w.Flush() //nolint:errcheck
		}
	})
}

// chatErrorStatus maps chat failures to HTTP status codes.
func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrLLMUnavailable), errors.Is(err, domain.ErrMissingSetting):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}

// flushWriter pushes every delta to the client as soon as it is written.
type flushWriter struct {
	w *bufio.Writer
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.w.Flush()
}
