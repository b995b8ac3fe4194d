package memcached

// Operation names a client operation for error reporting.
type Operation uint8

const (
	OpGet Operation = iota
	OpSet
	OpDelete
	OpIncrDecr
	OpFlush
	OpStats
)

func (op Operation) String() string {
	switch op {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	case OpIncrDecr:
		return "incr_decr"
	case OpFlush:
		return "flush"
	case OpStats:
		return "stats"
	default:
		return "unknown"
	}
}

// ErrorObserver is notified about every failed operation, before the error is returned.
// For multi-key operations it is called from several goroutines at once.
type ErrorObserver interface {
	ObserveError(op Operation, err error, keys ...string)
}

// ErrorObserverFunc adapts a function to ErrorObserver.
type ErrorObserverFunc func(op Operation, err error, keys ...string)

func (f ErrorObserverFunc) ObserveError(op Operation, err error, keys ...string) {
	f(op, err, keys...)
}

type nopObserver struct{}

func (nopObserver) ObserveError(Operation, error, ...string) {}
