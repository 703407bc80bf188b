// Package main provides the archlens CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/archlens/pkg/config"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
	"github.com/orneryd/archlens/pkg/graph/resultcache"
	"github.com/orneryd/archlens/pkg/graph/visualization"
	"github.com/orneryd/archlens/pkg/httpapi"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "archlens",
		Short: "archlens - architectural-dependency explorer for labelled property graphs",
		Long: `archlens turns raw path records from a labelled property graph into
abstracted, filtered visualizations of a software landscape's dependency
structure, plus the architectural violations present in it.

Components:
  • Containment Index + Node Store for the domain/application/layer/
    sublayer/module hierarchy
  • Path Parser with edge lifting (abstraction) to a requested depth
  • Degree filtering, duplicate merging, cycle and layer-violation
    detection
  • A thin HTTP surface serving the visualization-ready result`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("archlens v%s (%s)\n", version, commit)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the archlens HTTP server against an in-memory fixture graph",
		Long:  "Starts the HTTP surface backed by a small in-memory RecordSource fixture, useful for demos and local development against a real store's response shape.",
		RunE:  runServe,
	}
	serveCmd.Flags().Int("http-port", 0, "HTTP API port (overrides ARCHLENS_HTTP_PORT)")
	rootCmd.AddCommand(serveCmd)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Loads configuration from ARCHLENS_CONFIG_FILE (if set) and the environment, then prints the result. With --write, saves it back to the given path as YAML.",
		RunE:  runConfig,
	}
	configCmd.Flags().String("write", "", "write the effective config to this path as YAML")
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.LoadFromEnv()
	if port, _ := cmd.Flags().GetInt("http-port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("starting archlens v%s\n", version)
	fmt.Printf("  http:           %s:%d\n", cfg.Server.Address, cfg.Server.Port)
	fmt.Printf("  store timeout:  %s\n", cfg.Database.ReadTimeout)
	fmt.Printf("  result cache:   enabled=%t dir=%q ttl=%s\n", cfg.Cache.Enabled, cfg.Cache.DataDir, cfg.Cache.TTL)

	var cache *resultcache.Cache
	if cfg.Cache.Enabled {
		c, err := resultcache.Open(resultcache.Options{DataDir: cfg.Cache.DataDir, TTL: cfg.Cache.TTL})
		if err != nil {
			return fmt.Errorf("opening result cache: %w", err)
		}
		defer c.Close()
		cache = c
	}

	source := demoFixture()
	visualizer := &visualization.Service{Source: source, Cache: cache}
	apiServer := &httpapi.Server{Visualizer: visualizer}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler:      apiServer.Mux(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("listening on http://%s\n", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-sigCh:
		fmt.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.LoadFromEnv()
	fmt.Println(cfg.String())

	if path, _ := cmd.Flags().GetString("write"); path != "" {
		if err := cfg.SaveToFile(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("wrote config to %s\n", path)
	}
	return nil
}

// demoFixture returns an in-memory RecordSource fixture: a two-level
// app one layer below its domain, and two modules with a single CALLS
// dependency between them.
func demoFixture() *recordsource.InMemory {
	domain := recordsource.RawNode{ElementID: "d1", Labels: []string{"Domain"}, Properties: map[string]any{"simple_name": "Billing", "full_name": "Billing"}}
	app := recordsource.RawNode{ElementID: "a1", Labels: []string{"Application"}, Properties: map[string]any{"simple_name": "Invoicing", "full_name": "Billing.Invoicing"}}
	m1 := recordsource.RawNode{ElementID: "m1", Labels: []string{"Module"}, Properties: map[string]any{"simple_name": "InvoiceService", "full_name": "Billing.Invoicing.InvoiceService"}}
	m2 := recordsource.RawNode{ElementID: "m2", Labels: []string{"Module"}, Properties: map[string]any{"simple_name": "InvoiceRepository", "full_name": "Billing.Invoicing.InvoiceRepository"}}

	path := recordsource.RawPath{
		Nodes: []recordsource.RawNode{domain, app, m1, m2, domain, app},
		Relationships: []recordsource.RawRelationship{
			{ElementID: "r1", Type: "CONTAINS", StartID: "d1", EndID: "a1"},
			{ElementID: "r2", Type: "CONTAINS", StartID: "a1", EndID: "m1"},
			{ElementID: "r3", Type: "CALLS", StartID: "m1", EndID: "m2", Properties: map[string]any{"nr_dependencies": 3}},
			{ElementID: "r4", Type: "CONTAINS", StartID: "d1", EndID: "a1"},
			{ElementID: "r5", Type: "CONTAINS", StartID: "a1", EndID: "m2"},
		},
	}

	return recordsource.NewInMemory().
		Register("neighbourhood(id=a1, layerDepth=1)", []recordsource.RawPath{path}).
		Register("outgoing(id=a1, depth=1, external=false)", []recordsource.RawPath{path})
}
