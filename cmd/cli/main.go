package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"modelcat/internal/catalog"
	"modelcat/internal/config"
	"modelcat/internal/directory"
	"modelcat/internal/flatten"
	"modelcat/internal/ioformats"
	"modelcat/internal/metrics"
	"modelcat/internal/models"
	"modelcat/internal/pipeline"
	"modelcat/pkg/logger"
)

// app is built once per invocation from the global flags.
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	pipe *pipeline.Pipeline
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		logLevel string
		a        = &app{}
	)
	root := &cobra.Command{
		Use:          "modelcat",
		Short:        "Annotate model catalog links and mine their metadata",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(cfgFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if cfg.Log.Development {
				a.log = logger.NewDevelopment(cfg.Log.Level)
			} else {
				a.log = logger.New(cfg.Log.Level)
			}
			a.cfg = cfg
			a.pipe = pipeline.New(cfg, a.log, metrics.Nop())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		a.extractCmd(),
		a.annotateCmd(),
		a.mineCmd(),
		a.flattenCmd(),
		a.classifyCmd(),
		a.modelsCmd(),
		a.listOutCmd(),
		a.buildDocsCmd(),
		a.createCatalogCmd(),
		versionCmd(),
	)
	return root
}

// batch returns a logger tagged with a fresh batch id.
func (a *app) batch(op string) *logger.Logger {
	return a.log.With("batch_id", uuid.NewString(), "op", op)
}

func (a *app) catalogClient(token string) *catalog.Client {
	opts := []catalog.Option{catalog.WithLogger(a.log)}
	if token != "" {
		opts = append(opts, catalog.WithToken(token))
	}
	return catalog.NewClient(a.cfg.Catalog.BaseURL, opts...)
}

func (a *app) directoryClient() *directory.Client {
	return directory.NewClient(a.cfg.Catalog.DirectoryURL, nil, a.log)
}

// loadEntries reads entries from input, or pulls the models under catalogID
// when input is empty.
func (a *app) loadEntries(ctx context.Context, input, catalogID string) ([]models.CatalogEntry, error) {
	if input != "" {
		return ioformats.ReadEntries(input)
	}
	if catalogID == "" {
		catalogID = a.cfg.Catalog.DefaultCatalogID
	}
	entries, _, err := a.catalogClient("").GetModels(ctx, catalogID)
	return entries, err
}

// output opens path for writing; empty or "-" is stdout.
func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx":
		return "xlsx"
	default:
		return "ndjson"
	}
}

// writeTable writes a header plus rows as CSV, XLSX, or one JSON object per row.
func writeTable(path, sheet string, header []string, rows [][]string) error {
	if format(path) == "xlsx" {
		return ioformats.WriteRows(path, sheet, header, rows)
	}
	w, err := output(path)
	if err != nil {
		return err
	}
	defer w.Close()
	if format(path) == "csv" {
		return ioformats.WriteCSV(w, header, rows)
	}
	objs := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		m := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(r) {
				m[h] = r[i]
			}
		}
		objs = append(objs, m)
	}
	return ioformats.WriteNDJSON(w, objs)
}

func writeNDJSON[T any](path string, items []T) error {
	w, err := output(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return ioformats.WriteNDJSON(w, items)
}

func writeRecords(path string, records []*flatten.Record) error {
	if format(path) == "ndjson" {
		return writeNDJSON(path, records)
	}
	cols, rows := ioformats.RecordRows(records)
	return writeTable(path, "Flattened", cols, rows)
}
