package middleware

import (
	"context"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/outbox"
)

// OutboxFlush drains recorded domain events after a command succeeds. A
// failed flush leaves the unsent records queued for the next command, so
// events are delivered at-least-once.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
