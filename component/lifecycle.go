package component

import (
	"context"
	"time"
)

// LifecycleComponent is a Discoverable with explicit lifecycle control.
// Initialize takes no context and must not block on the network. Start
// receives the context that bounds the component's subscriptions. Stop
// waits at most timeout for in-flight work.
type LifecycleComponent interface {
	Discoverable
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}
