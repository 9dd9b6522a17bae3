package dotosu

import "go.uber.org/zap"

// Option configures a Decode or DecodeFile call.
type Option func(*options)

type options struct {
	strict bool
	logger *zap.Logger
}

func defaultOptions() options {
	return options{logger: zap.NewNop()}
}

// WithStrict turns the first warning into a fatal *LineError.
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithLogger logs every warning at debug level as it is raised.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
