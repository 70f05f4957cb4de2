package application

import (
	"context"
	"time"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// IDGenerator hands out entity identifiers.
type IDGenerator interface {
	NewID() string
}

// Clock is injected where use cases compare against "now".
type Clock func() time.Time
