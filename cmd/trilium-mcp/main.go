// Package main implements the MCP server for Trilium notes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/taigrr/trilium-mcp/internal/config"
	"github.com/taigrr/trilium-mcp/internal/etapi"
	"github.com/taigrr/trilium-mcp/internal/frontmatter"
	"github.com/taigrr/trilium-mcp/internal/logging"
	"github.com/taigrr/trilium-mcp/internal/notefilter"
	"github.com/taigrr/trilium-mcp/internal/notes"
	"github.com/taigrr/trilium-mcp/internal/search"
)

var (
	noteService   *notes.Service
	searchService *search.Service
	logger        logrus.FieldLogger = logging.Discard()
)

var flags struct {
	configPath string
	url        string
	token      string
	logLevel   string
	logFormat  string
}

func main() {
	cmd := &cobra.Command{
		Use:   "trilium-mcp",
		Short: "MCP bridge for Trilium notes",
		Long: `trilium-mcp is a Model Context Protocol (MCP) server that exposes a
Trilium Notes server through its ETAPI. It lets any MCP-compatible
AI harness search, read, create and edit notes, applying partial
edits safely and verifying what was written.

Settings are read from the config file, then TRILIUM_URL,
TRILIUM_TOKEN and TRILIUM_MCP_LOG_LEVEL, then flags.`,
		Example: `trilium-mcp --url http://localhost:8080 --token "$ETAPI_TOKEN"`,
		Args:    cobra.NoArgs,
		RunE:    runServer,
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/trilium-mcp/config.yaml)")
	cmd.Flags().StringVar(&flags.url, "url", "", "Trilium server URL")
	cmd.Flags().StringVar(&flags.token, "token", "", "ETAPI token")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "log format (text or json)")

	if err := fang.Execute(
		context.Background(),
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = config.DefaultPath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if cmd.Flags().Changed("url") {
		cfg.URL = flags.url
	}
	if cmd.Flags().Changed("token") {
		cfg.Token = flags.token
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	logger = log

	// Initialize services
	client, err := etapi.New(cfg.URL, cfg.Token,
		etapi.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		etapi.WithLogger(log.WithField("component", "etapi")),
	)
	if err != nil {
		return err
	}
	nf, err := notefilter.New(&cfg.Filter)
	if err != nil {
		return err
	}
	noteService = notes.New(client, nf, frontmatter.New(), log.WithField("component", "notes"))
	searchService = search.New(client, nf, log.WithField("component", "search"))

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "trilium-mcp",
		Version: version,
	}, nil)

	registerTools(server)

	log.WithFields(logrus.Fields{
		"url":     client.ServerURL(),
		"version": version,
	}).Info("serving on stdio")

	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}

	return nil
}
