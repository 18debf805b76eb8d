package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// Close closes c and logs the error instead of returning it. Intended for
// cleanup paths where a close failure must not mask the primary error.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Error("failed to close", "error", err.Error())
	}
}
