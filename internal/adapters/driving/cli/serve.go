package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/adapters/driving/api"
	"github.com/custodia-labs/policyrag/internal/core/services"
	"github.com/custodia-labs/policyrag/internal/logger"
)

// Port range searched when --port is 0.
const (
	defaultServePortStart = 8080
	defaultServePortEnd   = 8180
)

var (
	serveHost     string
	servePort     int
	serveOrigins  []string
	serveManifest string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves retrieval, context assembly, document extraction and chat over HTTP.

Endpoints:
  GET  /api/v1/health
  POST /api/v1/retrieve   {"query": "...", "topK": 6}
  POST /api/v1/context    chat request, returns the assembled system message
  POST /api/v1/extract    multipart upload, field "file"
  POST /api/v1/chat       chat request, streams the answer (?stream=false for JSON)

Chat requests select policy documents by name from --manifest; file paths in
request bodies are ignored. The chat endpoints are only registered when the
language model is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (0 = first free port from 8080)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default: none)")
	serveCmd.Flags().StringVarP(&serveManifest, "manifest", "m", "", "YAML manifest listing the policy documents requests may use")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	retriever, err := getRetriever(ctx)
	if err != nil {
		return fmt.Errorf("retriever not available: %w", err)
	}
	ports := &api.Ports{
		Retriever: retriever,
		Extractor: getExtractor(),
	}
	if chat, err := getChat(ctx, true); err == nil {
		ports.Chat = chat
	} else {
		logger.Warn("Chat endpoints disabled: %v", err)
	}

	cfg := api.Config{
		Version:        version,
		AllowOrigins:   serveOrigins,
		RequestLogging: verbose,
	}
	if serveManifest != "" {
		cfg.Policies, err = loadManifest(serveManifest)
		if err != nil {
			return err
		}
	}

	server, err := api.NewServer(ports, cfg)
	if err != nil {
		return err
	}

	port := servePort
	if port == 0 {
		port, err = services.FindAvailablePort(serveHost, defaultServePortStart, defaultServePortEnd)
		if err != nil {
			return err
		}
	}
	addr := net.JoinHostPort(serveHost, strconv.Itoa(port))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("HTTP API listening on http://%s\n", addr)
	return server.Run(ctx, addr)
}
