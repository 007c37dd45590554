package internal

// ErrorKind partitions transport failures by where they originated.
type ErrorKind int

const (
	// KindBuild: malformed request at construction time, never retried.
	KindBuild ErrorKind = iota
	// KindBridge: the background dispatcher is gone.
	KindBridge
	// KindEngine: network-level failure reported by the engine, wrapped
	// verbatim. Retry policy, if any, belongs to the caller.
	KindEngine
	// KindBodyRead: failure reading a streaming body mid-exchange.
	KindBodyRead
)

func (k ErrorKind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindBridge:
		return "bridge"
	case KindEngine:
		return "engine"
	case KindBodyRead:
		return "body read"
	}
	return "unknown"
}

// Error is the transport-level error wrapper. The underlying cause is
// always preserved for errors.Is / errors.As.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return "httpbridge: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
