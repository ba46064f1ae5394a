package di

// Lifetime determines how many instances a registration produces.
type Lifetime int

const (
	Instance      Lifetime = iota // Pre-built value, always the same object
	LazySingleton                 // Built on first resolution, then cached
	Transient                     // Built on every resolution, never cached
)

// String returns the lifetime name used in logs and metrics.
func (l Lifetime) String() string {
	switch l {
	case Instance:
		return "instance"
	case LazySingleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// DisposeOrder controls the order in which a scope disposes its singletons.
type DisposeOrder int

const (
	DisposeReverse DisposeOrder = iota // Last materialized first
	DisposeForward                     // First materialized first
)

// ParseDisposeOrder maps a config value to a DisposeOrder. Unknown values
// fall back to DisposeReverse.
func ParseDisposeOrder(s string) DisposeOrder {
	if s == "forward" {
		return DisposeForward
	}
	return DisposeReverse
}
