package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazysearch/internal/config"
	"github.com/rebeliceyang/lazysearch/internal/db/connection"
	"github.com/rebeliceyang/lazysearch/internal/db/metadata"
	"github.com/rebeliceyang/lazysearch/internal/db/query"
	"github.com/rebeliceyang/lazysearch/internal/elastic"
	"github.com/rebeliceyang/lazysearch/internal/export"
	"github.com/rebeliceyang/lazysearch/internal/filter"
	"github.com/rebeliceyang/lazysearch/internal/highlight"
	"github.com/rebeliceyang/lazysearch/internal/models"
)

func newSQLCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql <condition-file>...",
		Short: "Print the WHERE clause of each condition file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.sqlOptions(cmd)
			if err != nil {
				return err
			}
			m, err := a.loadMappings()
			if err != nil {
				return err
			}
			c, err := a.newCompiler(m)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			clauses, err := compileFiles(ctx, args, func(cond *models.SearchCondition) (filter.Clause, error) {
				return c.SQL(cond, opts)
			})
			if err != nil {
				return err
			}

			p := a.printer()
			for i, clause := range clauses {
				if len(args) > 1 {
					p.comment(args[i])
				}
				p.source(clause.SQL, highlight.SQL)
				if opts.BindVars {
					p.args(clause.Args)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("prefix", "", "text put before a non-empty clause, e.g. \"WHERE \" (default: general.prefix)")
	cmd.Flags().String("dialect", "", "SQL dialect: standard, sqlite or postgres (default: general.dialect)")
	cmd.Flags().Bool("bind", false, "emit placeholders and print the bound arguments")
	return cmd
}

func (a *app) sqlOptions(cmd *cobra.Command) (sqlOptions, error) {
	opts := sqlOptions{
		Prefix:   a.cfg.General.Prefix,
		BindVars: a.cfg.General.BindVars,
	}
	dialect := a.cfg.General.Dialect

	if cmd.Flags().Changed("prefix") {
		opts.Prefix, _ = cmd.Flags().GetString("prefix")
	}
	if cmd.Flags().Changed("dialect") {
		dialect, _ = cmd.Flags().GetString("dialect")
	}
	if cmd.Flags().Changed("bind") {
		opts.BindVars, _ = cmd.Flags().GetBool("bind")
	}

	d, err := filter.LookupDialect(dialect)
	if err != nil {
		return sqlOptions{}, err
	}
	opts.Dialect = d
	return opts, nil
}

func newElasticCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elastic <condition-file>...",
		Short: "Print the Elasticsearch query of each condition file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showMappings, _ := cmd.Flags().GetBool("show-mappings")
			overrides, _ := cmd.Flags().GetStringToString("param")

			params := elastic.ParameterBag{}
			for k, v := range a.cfg.Elastic.Parameters {
				params[k] = v
			}
			for k, v := range overrides {
				params[k] = v
			}

			m, err := a.loadMappings()
			if err != nil {
				return err
			}
			c, err := a.newCompiler(m)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			results, err := compileFiles(ctx, args, func(cond *models.SearchCondition) (elasticResult, error) {
				return c.Elastic(cond, params)
			})
			if err != nil {
				return err
			}

			p := a.printer()
			for i, r := range results {
				if len(args) > 1 {
					p.comment(args[i])
				}
				if string(r.Query) == "null" {
					p.comment("empty condition")
					continue
				}
				p.source(string(r.Query), highlight.JSON)
				if showMappings {
					p.mappings(r.Mappings)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("show-mappings", false, "list the mappings the query uses with their index and type")
	cmd.Flags().StringToString("param", nil, "parameter for {name} placeholders in mappings (repeatable, key=value)")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <condition-file>",
		Short: "Execute a condition against the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportPath, _ := cmd.Flags().GetString("export")
			limit := a.cfg.General.Limit
			if cmd.Flags().Changed("limit") {
				limit, _ = cmd.Flags().GetInt("limit")
			}

			m, err := a.loadMappings()
			if err != nil {
				return err
			}
			if m.SQL.From == "" {
				return errors.New("mappings file has no sql.from to select from")
			}
			cond, err := readCondition(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			c, err := a.newCompiler(m)
			if err != nil {
				return err
			}
			clause, err := c.SQL(cond, sqlOptions{Dialect: db.dialect, BindVars: true})
			if err != nil {
				return err
			}
			stmt, err := query.BuildSelect(m.SQL.From, clause, limit)
			if err != nil {
				return err
			}
			a.logger.Debug("executing", "sql", stmt.SQL, "args", len(stmt.Args))

			result, err := db.execute(ctx, stmt)
			if err != nil {
				return err
			}

			if exportPath != "" {
				if err := export.Export(result, exportPath); err != nil {
					return err
				}
				a.logger.Info("exported rows", "file", exportPath, "rows", len(result.Rows))
				return nil
			}

			p := a.printer()
			p.table(result.Columns, result.Rows)
			p.comment(fmt.Sprintf("%d rows in %s", len(result.Rows), result.Duration))
			return nil
		},
	}

	cmd.Flags().String("export", "", "write rows to a .csv or .json file instead of printing them")
	cmd.Flags().Int("limit", 0, "maximum number of rows, 0 for no limit (default: general.limit)")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that every mapped SQL column exists in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadMappings()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			missing, err := metadata.CheckColumns(ctx, db.columns(), m.Columns())
			if err != nil {
				return err
			}

			p := a.printer()
			if len(missing) == 0 {
				p.comment("all mapped columns exist")
				return nil
			}
			rows := make([][]string, len(missing))
			for i, mc := range missing {
				rows[i] = []string{mc.Table, mc.Column}
			}
			p.table([]string{"TABLE", "MISSING COLUMN"}, rows)
			return fmt.Errorf("%d mapped columns are missing", len(missing))
		},
	}
}

// database is an open PostgreSQL pool or SQLite handle
type database struct {
	pool    *connection.Pool
	sqlite  *sql.DB
	dialect filter.Dialect
}

func (a *app) openDatabase(ctx context.Context) (*database, error) {
	dbCfg := connectionConfig(a.cfg.Database)

	if dbCfg.IsSQLite() {
		path := config.ResolvePath(a.configFile, dbCfg.Path)
		db, err := connection.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("opened sqlite database", "path", path)
		return &database{sqlite: db, dialect: filter.SQLite}, nil
	}

	dbCfg = dbCfg.WithEnvironment()
	if a.cfg.Database.UseKeyring {
		dir, err := config.GetConfigPath()
		if err != nil {
			return nil, err
		}
		store, err := connection.NewPasswordStore(dir)
		if err != nil {
			return nil, err
		}
		if dbCfg, err = store.LookupPassword(dbCfg); err != nil {
			return nil, err
		}
	}

	pool, err := connection.NewPool(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	opened := pool.Config()
	a.logger.Debug("connected",
		"host", opened.Host,
		"port", opened.Port,
		"database", opened.Database,
		"user", opened.User,
		"max_conns", opened.MaxConns)
	return &database{pool: pool, dialect: filter.Postgres}, nil
}

func connectionConfig(c config.DatabaseConfig) connection.Config {
	return connection.Config{
		Driver:   c.Driver,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Name,
		User:     c.User,
		Password: c.Password,
		SSLMode:  c.SSLMode,
		Path:     c.Path,
		MaxConns: c.MaxConns,
	}
}

func (d *database) execute(ctx context.Context, stmt filter.Clause) (*query.Result, error) {
	if d.sqlite != nil {
		return query.ExecuteDB(ctx, d.sqlite, stmt.SQL, stmt.Args...)
	}
	return query.Execute(ctx, d.pool.GetPool(), stmt.SQL, stmt.Args...)
}

func (d *database) columns() metadata.ColumnSource {
	if d.sqlite != nil {
		return metadata.SQLiteColumns{DB: d.sqlite}
	}
	return metadata.PostgresColumns{Pool: d.pool}
}

func (d *database) Close() {
	if d.sqlite != nil {
		_ = d.sqlite.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("$%d = %s", i+1, formatArg(arg))
	}
	return strings.Join(parts, ", ")
}

func formatArg(arg any) string {
	if s, ok := arg.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(arg)
}
