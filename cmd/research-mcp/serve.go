// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-mcp/internal/research"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Serve exposes search_papers, extract_info, get_database_stats, list_topics,
topic_papers, and export_paper as MCP tools. The default transport is stdio;
use --transport http to serve streamable HTTP on --http-addr.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("transport", "", "stdio or http (default from MCP_TRANSPORT)")
	serveCmd.Flags().String("http-addr", "", "listen address for the http transport (default from MCP_HTTP_ADDR)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if t, _ := cmd.Flags().GetString("transport"); t != "" {
		cfg.Server.Transport = t
	}
	if addr, _ := cmd.Flags().GetString("http-addr"); addr != "" {
		cfg.Server.HTTPAddr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := research.NewMCPServer(openService(), version)
	logger.Info("starting MCP server",
		"name", cfg.Server.Name,
		"version", version,
		"transport", cfg.Server.Transport,
		"papers_dir", cfg.Store.PapersDir(),
	)

	switch cfg.Server.Transport {
	case "stdio":
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serving stdio: %w", err)
		}
		return nil
	case "http":
		return serveHTTP(ctx, server, cfg.Server.HTTPAddr)
	}
	return fmt.Errorf("unsupported transport %q", cfg.Server.Transport)
}

// serveHTTP serves server over streamable HTTP until ctx is cancelled.
func serveHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
