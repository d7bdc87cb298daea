package dashboard

import (
	"context"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/logger"
)

// async runs call off the loop and posts its continuation back. On failure
// the error is logged and shown, and then is not invoked, so state is left
// exactly as it was.
func async[T any](c *Controller, op string, call func(ctx context.Context) (T, error), then func(T)) {
	ctx := c.ctx
	go func() {
		v, err := call(ctx)
		c.Post(func() {
			if err != nil {
				c.fail(op, err)
				return
			}
			then(v)
		})
	}()
}

// fail logs err and surfaces it. Backend-reported messages are shown verbatim.
func (c *Controller) fail(op string, err error) {
	if c.ctx.Err() != nil {
		return
	}
	c.logger.Errorw("Backend call failed", logger.FieldOperation, op, logger.FieldError, err)
	c.notify(LevelError, userMessage(err))
	c.dirty = true
}

func userMessage(err error) string {
	if errors.IsServerReported(err) {
		return "Error: " + errors.UnwrapAll(err).Error()
	}
	msg := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += " (" + hints[0] + ")"
	}
	return msg
}
