// Package main provides the Vegvisir CLI entry point: it loads a graph
// snapshot, compiles a declarative plan file into a physical operator tree,
// executes it, and prints the resulting table and any constructed graph.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/vegvisir/pkg/config"
	"github.com/orneryd/vegvisir/pkg/graph"
	"github.com/orneryd/vegvisir/pkg/physical"
	"github.com/orneryd/vegvisir/pkg/plan"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	root := &cobra.Command{
		Use:   "vegvisir",
		Short: "Vegvisir graph query execution engine",
		Long:  "Vegvisir executes physical query plans over in-memory property graphs and materializes constructed graphs.",
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vegvisir %s (%s)\n", version, commit)
		},
	}
}

func newRunCmd() *cobra.Command {
	var configPath string
	var dumpPath string

	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Execute a plan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.FindConfigFile()
			}
			cfg, err := config.LoadFromFile(configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return runPlan(cmd.Context(), cfg, logger, args[0], dumpPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: auto-detect)")
	cmd.Flags().StringVarP(&dumpPath, "dump", "d", "", "write the constructed graph snapshot to this file")
	return cmd
}

func runPlan(ctx context.Context, cfg *config.Config, logger *zap.Logger, planPath, dumpPath string) error {
	f, err := plan.Load(planPath)
	if err != nil {
		return err
	}
	graphPath := f.Graph
	if !filepath.IsAbs(graphPath) {
		graphPath = filepath.Join(cfg.GraphDir, graphPath)
	}
	g, err := graph.LoadSnapshot(graphPath)
	if err != nil {
		return err
	}
	logger.Info("graph loaded",
		zap.String("name", g.Name()),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("relationships", g.RelationshipCount()))

	op, err := f.Compile(g.Name())
	if err != nil {
		return err
	}

	catalog := graph.NewCatalog()
	catalog.Register(g)
	rc := physical.NewContext(catalog)
	rc.Logger = logger
	rc.Alloc.EnsureAtLeast(g.MaxID() + 1)

	res, err := op.Execute(ctx, rc)
	if err != nil {
		return err
	}

	printTable(res)

	if res.Graph != nil && res.Graph.Name() != g.Name() {
		fmt.Printf("\nConstructed graph %q: %d nodes, %d relationships\n",
			res.GraphName, res.Graph.NodeCount(), res.Graph.RelationshipCount())
		if dumpPath != "" {
			if err := dumpSnapshot(res.Graph, dumpPath); err != nil {
				return err
			}
			fmt.Printf("Snapshot written to %s\n", dumpPath)
		}
	}
	return nil
}

func printTable(res *physical.Result) {
	fields := res.Header.Fields()
	for i, f := range fields {
		if i > 0 {
			fmt.Print("\t")
		}
		fmt.Print(f)
	}
	fmt.Println()
	for _, row := range res.Table.Rows() {
		for i, f := range fields {
			if i > 0 {
				fmt.Print("\t")
			}
			if v, ok := row.Get(f); ok {
				fmt.Print(v.String())
			} else {
				fmt.Print("null")
			}
		}
		fmt.Println()
	}
	fmt.Printf("(%d rows)\n", res.Table.Len())
}

func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	var zc zap.Config
	if lc.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func dumpSnapshot(g *graph.Graph, path string) error {
	data, err := yaml.Marshal(g.ToSnapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
