// Command lazysearch compiles search conditions into SQL WHERE clauses and
// Elasticsearch queries, and runs them against a database.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazysearch/internal/config"
	"github.com/rebeliceyang/lazysearch/internal/highlight"
	"github.com/rebeliceyang/lazysearch/internal/logging"
	"github.com/rebeliceyang/lazysearch/internal/mappings"
)

var version = "dev"

// app carries what every command needs once flags are parsed
type app struct {
	cfg          *config.Config
	configFile   string
	mappingsFile string
	logger       *slog.Logger
	out          io.Writer
	hl           *highlight.Highlighter
}

func main() {
	a := &app{out: os.Stdout}

	rootCmd := newRootCmd(a)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lazysearch",
		Short:         "Compile search conditions to SQL and Elasticsearch queries",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			mappingsFile, _ := cmd.Flags().GetString("mappings")
			logLevel, _ := cmd.Flags().GetString("log-level")
			return a.setup(configFile, mappingsFile, logLevel)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: search user config dir, . and ./config)")
	rootCmd.PersistentFlags().String("mappings", "", "field mappings file (default: mappings.file from config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(a.out, version)
		},
	}

	rootCmd.AddCommand(
		newSQLCmd(a),
		newElasticCmd(a),
		newRunCmd(a),
		newCheckCmd(a),
		versionCmd,
	)
	return rootCmd
}

func (a *app) setup(configFile, mappingsFile, logLevel string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	if mappingsFile == "" {
		mappingsFile = config.ResolvePath(configFile, cfg.Mappings.File)
	}

	a.cfg = cfg
	a.configFile = configFile
	a.mappingsFile = mappingsFile
	a.logger = logger
	if a.hl == nil {
		a.hl = highlight.ForWriter(a.out)
	}
	return nil
}

func (a *app) loadMappings() (*mappings.File, error) {
	m, err := mappings.Load(a.mappingsFile)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded mappings", "file", a.mappingsFile,
		"sql_fields", len(m.SQL.Fields), "elastic_fields", len(m.Elastic.Fields))
	return m, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
