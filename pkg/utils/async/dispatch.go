package async

import (
	"context"
	"runtime/debug"

	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// Dispatch runs fn in a new goroutine with panic recovery. A panic is logged
// with its stack trace instead of crashing the process.
func Dispatch(ctx context.Context, fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(ctx).Error("panic in async task",
					"recover", r,
					"stack", string(debug.Stack()),
				)
			}
		}()

		fn(ctx)
	}()
}
