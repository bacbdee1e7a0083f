package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	usertypes "github.com/goliatone/go-users/pkg/types"

	resume "github.com/goliatone/go-resume"
	"github.com/goliatone/go-resume/internal/config"
	"github.com/goliatone/go-resume/pkg/activity"
	"github.com/goliatone/go-resume/pkg/activity/usersink"
	"github.com/goliatone/go-resume/pkg/rules"
	"github.com/goliatone/go-resume/pkg/state"
)

type sessionOptions struct {
	configPath string
	envFile    string
	key        string
}

// session is one command invocation: the restored history, autosaving into
// the configured store until Close.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *slog.Logger
	history *resume.History
	in      io.Reader
	out     io.Writer

	stopAutosave func()
	closeStore   func()

	mu       sync.Mutex
	saveErrs []error
}

func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(opts.configPath, envFiles...)
	if err != nil {
		return nil, err
	}
	if opts.key != "" {
		cfg.Store.Key = opts.key
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	historyOpts := []resume.Option{
		resume.WithHistoryLimit(cfg.History.Limit),
		resume.WithLogger(resume.SlogHistoryLogger(logger)),
		resume.WithEvaluatorLogger(rules.SlogEvaluatorLogger(logger)),
	}
	if cfg.Activity.Enabled {
		historyOpts = append(historyOpts,
			resume.WithActivityHooks(usersink.Hook{Sink: slogSink{logger: logger}}),
			resume.WithActivityConfig(activity.Config{Enabled: true, Channel: cfg.Activity.Channel}),
			resume.WithActivityIdentity(activity.Identity{
				ActorID:    cfg.Activity.ActorID,
				DocumentID: cfg.Store.Key,
			}),
		)
	}

	history, err := resume.Load(ctx, store, cfg.Store.Key, historyOpts...)
	if err != nil {
		closeStore()
		return nil, err
	}

	s := &session{
		ctx:        ctx,
		cfg:        cfg,
		logger:     logger,
		history:    history,
		in:         os.Stdin,
		out:        os.Stdout,
		closeStore: closeStore,
	}
	s.stopAutosave = history.Autosave(ctx, store, cfg.Store.Key, s.recordSaveErr)
	return s, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (state.Store[resume.HistoryState], func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return state.NewMemoryStore[resume.HistoryState](), func() {}, nil
	case config.DriverFile:
		return state.NewFileStore[resume.HistoryState](cfg.Dir), func() {}, nil
	case config.DriverPostgres:
		pool, err := state.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := state.NewPostgresStore[resume.HistoryState](pool, cfg.Table)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (s *session) recordSaveErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErrs = append(s.saveErrs, err)
}

func (s *session) saveErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.saveErrs...)
}

func (s *session) Close() {
	if s.stopAutosave != nil {
		s.stopAutosave()
	}
	if s.closeStore != nil {
		s.closeStore()
	}
}

// slogSink logs activity records instead of persisting them.
type slogSink struct {
	logger *slog.Logger
}

func (s slogSink) Log(ctx context.Context, record usertypes.ActivityRecord) error {
	s.logger.InfoContext(ctx, "resume activity",
		slog.String("verb", record.Verb),
		slog.String("object_type", record.ObjectType),
		slog.String("object_id", record.ObjectID),
		slog.String("channel", record.Channel),
		slog.Any("data", record.Data),
	)
	return nil
}
