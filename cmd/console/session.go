package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ai-engineer-001/upcraft-crm/internal/app"
	"github.com/ai-engineer-001/upcraft-crm/internal/config"
	"github.com/ai-engineer-001/upcraft-crm/internal/files"
	"github.com/ai-engineer-001/upcraft-crm/internal/logging"
	"github.com/ai-engineer-001/upcraft-crm/internal/metrics"
	"github.com/ai-engineer-001/upcraft-crm/internal/redisstore"
	"github.com/ai-engineer-001/upcraft-crm/internal/search"
	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

const backendTimeout = 30 * time.Second

type globalOptions struct {
	configPath  string
	jsonOut     bool
	metricsFile string
}

func (o *globalOptions) loadConfig() (config.Config, error) {
	if strings.TrimSpace(o.configPath) == "" {
		return config.Load(), nil
	}
	return config.LoadFile(o.configPath)
}

// session is one command invocation: a configured service with its state
// loaded, plus the resources that must be released afterwards.
type session struct {
	cfg     config.Config
	svc     *app.Service
	logger  *zap.Logger
	metrics *metrics.Recorder
	out     io.Writer
	jsonOut bool
	closers []func() error
}

func openSession(ctx context.Context, opts *globalOptions, out io.Writer) (*session, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		out:     out,
		jsonOut: opts.jsonOut,
	}
	s.closers = append(s.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	repo, err := s.openRepository(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	var primary search.Backend
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		primary = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
	}

	svcOpts := []app.Option{
		app.WithLogger(logger),
		app.WithMetrics(s.metrics),
		app.WithSearch(search.NewService(primary, logger)),
	}
	if repo != nil {
		svcOpts = append(svcOpts, app.WithRepository(repo))
	}
	if strings.TrimSpace(cfg.S3Endpoint) != "" {
		linker, err := files.NewLinker(files.Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			TTL:       cfg.LinkTTL(),
		})
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, app.WithLinker(linker))
	}

	s.svc = app.New(cfg, svcOpts...)
	if err := s.svc.Load(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// openRepository returns nil for the memory backend.
func (s *session) openRepository(ctx context.Context) (app.Repository, error) {
	switch s.cfg.Backend {
	case config.BackendFile:
		return store.NewFileSnapshots(s.cfg.DataDir), nil
	case config.BackendRedis:
		rs, err := redisstore.New(s.cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rs.Close)
		return rs, nil
	case config.BackendPostgres:
		db, err := store.Open(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		var migrations fs.FS = store.MigrationsFS()
		if dir := strings.TrimSpace(s.cfg.MigrationsDir); dir != "" {
			migrations = os.DirFS(dir)
		}
		if err := store.ApplyMigrations(ctx, db, migrations); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewPostgresSnapshots(db), nil
	default:
		return nil, nil
	}
}

func (s *session) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// withSession runs fn against freshly loaded state. When mutate is set the
// state is saved afterwards, but only if fn succeeded.
func withSession(cmd *cobra.Command, opts *globalOptions, mutate bool, fn func(ctx context.Context, s *session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), backendTimeout)
	defer cancel()

	s, err := openSession(ctx, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(ctx, s); err != nil {
		return err
	}
	if mutate {
		if err := s.svc.Save(ctx); err != nil {
			return err
		}
	}
	if opts.metricsFile != "" {
		if err := s.metrics.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) printJSON(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
