package mock

import (
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/runtime/value"
)

// Factory produces a fresh mirrored graph on every call.
type Factory func() (value.Value, error)

type options struct {
	logger *zap.Logger
}

// Option configures a factory.
type Option func(*options)

// WithLogger routes factory diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// CreateMockFactory returns a factory mirroring actual. It fails immediately
// with ErrUnclassifiable when actual cannot be mirrored at all. Every call of
// the factory runs a complete build and generate pass with its own reference
// tables, so no two results share identity.
func CreateMockFactory(actual value.Value, opts ...Option) (Factory, error) {
	cfg := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if category := Classify(actual); category == None {
		return nil, newError(PhaseBuild, CodeUnclassifiable, ErrUnclassifiable, rootPath,
			"could not retrieve metadata from "+describeTag(actual))
	}

	return func() (value.Value, error) {
		md, stats, err := buildMetadata(actual, cfg.logger)
		if err != nil {
			return nil, err
		}
		mirrored, err := GenerateMock(md)
		if err != nil {
			cfg.logger.Error("generating mirrored graph", zap.Error(err))
			return nil, err
		}
		cfg.logger.Debug("mirrored graph",
			zap.String("root", string(md.Type)),
			zap.Int("nodes", stats.Nodes),
			zap.Int("refs", stats.Refs),
			zap.Int("back_refs", stats.BackRefs),
			zap.Int("omitted", stats.Omitted))
		return mirrored, nil
	}, nil
}

// Mirror runs a single build and generate pass over actual.
func Mirror(actual value.Value) (value.Value, error) {
	md, err := BuildMetadata(actual)
	if err != nil {
		return nil, err
	}
	return GenerateMock(md)
}
