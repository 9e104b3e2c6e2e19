// Package trace holds pipeline trace sinks that need no external broker.
package trace

import "context"

// Noop discards trace records; used when no broker is configured.
type Noop struct{}

func (Noop) Record(context.Context, string, string, any) error { return nil }
