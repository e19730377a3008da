package zmodem

// engineOptions carries the ambient (non-protocol) concerns the core
// Write/Read operations accept: a Logger, and, for Read, a way to defer
// opening the destination until the incoming file's name is known. Wire
// behavior never depends on these.
type engineOptions struct {
	logger      Logger
	sinkFactory func(*FileDescriptor) (Sink, error)
}

func newEngineOptions(opts []EngineOption) *engineOptions {
	o := &engineOptions{logger: NoopLogger{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EngineOption configures ambient behavior of Write/Read.
type EngineOption func(*engineOptions)

// WithLogger attaches a Logger to a Write or Read call. State transitions,
// frame traffic, and retry decisions are logged at Debug.
func WithLogger(l Logger) EngineOption {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSinkFactory lets Read open its destination lazily, once the sender's
// ZFILE has been parsed, instead of requiring a Sink up front. It only
// takes effect when Read is called with a nil sink. Returning a non-nil
// error rejects the file: Read sends ZSKIP and returns that error.
func WithSinkFactory(f func(*FileDescriptor) (Sink, error)) EngineOption {
	return func(o *engineOptions) {
		o.sinkFactory = f
	}
}
