package configloader

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/dsl"
	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/pkg/config"
)

// LoadSchema returns the schema the settings point at: the database behind
// DSN when set, otherwise SchemaFile. With neither, the schema is empty.
func LoadSchema(ctx context.Context, cfg config.Settings) (*schema.Schema, error) {
	switch {
	case cfg.DSN != "":
		dialect, err := schema.ParseDialect(cfg.Dialect)
		if err != nil {
			return nil, err
		}
		return schema.Load(ctx, dialect, cfg.DSN)
	case cfg.SchemaFile != "":
		return schema.LoadFile(cfg.SchemaFile)
	}
	return schema.FromTables(nil), nil
}

// NewEngine builds a completion engine serving s with the qualification
// mode, cache size and rules of cfg.
func NewEngine(cfg config.Settings, s *schema.Schema, log *zap.SugaredLogger) (*completion.Engine, error) {
	qualify, err := completion.ParseQualify(cfg.Qualify)
	if err != nil {
		return nil, err
	}

	rules, err := dsl.FromSettings(cfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "compile completion rules")
	}

	opts := completion.Options{
		Qualify:   qualify,
		CacheSize: cfg.CacheSize,
	}
	if rules.Len() > 0 {
		opts.Filter = rules
	}
	return completion.New(s, opts), nil
}
