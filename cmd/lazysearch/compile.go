package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/lazysearch/internal/cache"
	"github.com/rebeliceyang/lazysearch/internal/elastic"
	"github.com/rebeliceyang/lazysearch/internal/filter"
	"github.com/rebeliceyang/lazysearch/internal/mappings"
	"github.com/rebeliceyang/lazysearch/internal/models"
)

// sqlOptions controls relational compilation
type sqlOptions struct {
	Prefix   string
	Dialect  filter.Dialect
	BindVars bool
}

// elasticResult is a compiled document query with the mappings it uses
type elasticResult struct {
	Query    json.RawMessage
	Mappings []*elastic.FieldMapping
}

// compiler compiles condition files through a shared cache
type compiler struct {
	app      *app
	mappings *mappings.File
	sql      *cache.Cache[filter.Clause]
	elastic  *cache.Cache[elasticResult]
	enabled  bool
}

func (a *app) newCompiler(m *mappings.File) (*compiler, error) {
	size := a.cfg.Cache.Size
	sqlCache, err := cache.New[filter.Clause](size)
	if err != nil {
		return nil, err
	}
	esCache, err := cache.New[elasticResult](size)
	if err != nil {
		return nil, err
	}
	return &compiler{
		app:      a,
		mappings: m,
		sql:      sqlCache,
		elastic:  esCache,
		enabled:  a.cfg.Cache.Enabled,
	}, nil
}

func readCondition(path string) (*models.SearchCondition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read condition file: %w", err)
	}
	cond, err := models.DecodeCondition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cond, nil
}

// SQL compiles one condition to a clause
func (c *compiler) SQL(cond *models.SearchCondition, opts sqlOptions) (filter.Clause, error) {
	compile := func() (filter.Clause, error) {
		genOpts := []filter.Option{
			filter.WithDialect(opts.Dialect),
			filter.WithLogger(c.app.logger),
		}
		if opts.BindVars {
			genOpts = append(genOpts, filter.WithBindVars())
		}
		g := filter.NewGenerator(cond, genOpts...)
		if err := c.mappings.ApplySQL(g); err != nil {
			return filter.Clause{}, err
		}
		return g.Build(opts.Prefix)
	}
	if !c.enabled {
		return compile()
	}

	key, err := cache.Fingerprint("sql", cond, c.mappings.Path(), opts.Dialect.Name(), opts.Prefix, strconv.FormatBool(opts.BindVars))
	if err != nil {
		return filter.Clause{}, err
	}
	clause, cached, err := c.sql.GetOrCompute(key, compile)
	if err == nil {
		c.app.logger.Debug("compiled sql", "key", key, "cached", cached)
	}
	return clause, err
}

// Elastic compiles one condition to a JSON query
func (c *compiler) Elastic(cond *models.SearchCondition, params elastic.ParameterBag) (elasticResult, error) {
	compile := func() (elasticResult, error) {
		g := elastic.NewGenerator(cond, elastic.WithParameters(params), elastic.WithLogger(c.app.logger))
		if err := c.mappings.ApplyElastic(g); err != nil {
			return elasticResult{}, err
		}
		query, err := g.Query()
		if err != nil {
			return elasticResult{}, err
		}
		data, err := json.MarshalIndent(query, "", "  ")
		if err != nil {
			return elasticResult{}, fmt.Errorf("failed to marshal query: %w", err)
		}
		used, err := g.Mappings()
		if err != nil {
			return elasticResult{}, err
		}
		return elasticResult{Query: data, Mappings: used}, nil
	}
	if !c.enabled {
		return compile()
	}

	salt := []string{c.mappings.Path()}
	for _, k := range sortedKeys(params) {
		salt = append(salt, k+"="+fmt.Sprint(params[k]))
	}
	key, err := cache.Fingerprint("elastic", cond, salt...)
	if err != nil {
		return elasticResult{}, err
	}
	result, cached, err := c.elastic.GetOrCompute(key, compile)
	if err == nil {
		c.app.logger.Debug("compiled elastic query", "key", key, "cached", cached)
	}
	return result, err
}

// compileFiles reads and compiles every file concurrently, keeping the input
// order in the results
func compileFiles[T any](ctx context.Context, files []string, compile func(*models.SearchCondition) (T, error)) ([]T, error) {
	results := make([]T, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cond, err := readCondition(file)
			if err != nil {
				return err
			}
			r, err := compile(cond)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
