package resume

import (
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-resume/pkg/activity"
	"github.com/goliatone/go-resume/pkg/rules"
)

// DefaultHistoryLimit caps the number of undo steps kept in past.
const DefaultHistoryLimit = 50

// Option configures a History.
type Option func(*historyConfig)

type historyConfig struct {
	limit         int
	logger        HistoryLogger
	newID         func() string
	now           func() time.Time
	template      *Document
	activityHooks activity.Hooks
	activityCfg   activity.Config
	identity      activity.Identity

	evaluatorLogger rules.EvaluatorLogger
}

func applyOptions(opts []Option) historyConfig {
	cfg := historyConfig{
		limit:       DefaultHistoryLimit,
		logger:      noopHistoryLogger{},
		newID:       uuid.NewString,
		now:         time.Now,
		activityCfg: activity.Config{Enabled: true, Channel: activity.DefaultChannel},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithHistoryLimit sets how many past entries are retained. Values below one
// are ignored.
func WithHistoryLimit(limit int) Option {
	return func(cfg *historyConfig) {
		if limit < 1 {
			return
		}
		cfg.limit = limit
	}
}

// WithLogger attaches a history logger. A nil logger disables logging.
func WithLogger(logger HistoryLogger) Option {
	return func(cfg *historyConfig) {
		if logger == nil {
			cfg.logger = noopHistoryLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithIDGenerator replaces the UUID generator used for new sections and items.
func WithIDGenerator(fn func() string) Option {
	return func(cfg *historyConfig) {
		if fn != nil {
			cfg.newID = fn
		}
	}
}

// WithClock replaces time.Now, used to stamp new documents.
func WithClock(now func() time.Time) Option {
	return func(cfg *historyConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithDefaultDocument sets the document installed by New and Reset instead of
// DefaultDocument. Its CreatedAt is restamped on every reset.
func WithDefaultDocument(doc Document) Option {
	template := doc.Clone()
	return func(cfg *historyConfig) {
		cfg.template = &template
	}
}

// WithActivityHooks attaches hooks notified after every committed transition.
// Nil entries are dropped.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return func(cfg *historyConfig) {
		cfg.activityHooks = append(cfg.activityHooks, normalized...)
	}
}

// WithActivityConfig overrides the emitter defaults (enabled, channel).
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *historyConfig) {
		cfg.activityCfg = config
	}
}

// WithActivityIdentity sets the actor and document ids stamped on emitted
// activity events.
func WithActivityIdentity(identity activity.Identity) Option {
	return func(cfg *historyConfig) {
		cfg.identity = identity
	}
}

// WithEvaluatorLogger receives one event per preflight check.
func WithEvaluatorLogger(logger rules.EvaluatorLogger) Option {
	return func(cfg *historyConfig) {
		cfg.evaluatorLogger = logger
	}
}

func (cfg historyConfig) defaultDocument() Document {
	if cfg.template == nil {
		return DefaultDocument(cfg.now())
	}
	doc := cfg.template.Clone()
	doc.Meta.CreatedAt = cfg.now().UTC()
	return doc.normalize()
}
