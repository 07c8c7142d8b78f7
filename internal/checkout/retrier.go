package checkout

import (
	"context"
	"log/slog"

	"github.com/bookline/payflow/internal/domain"
)

// Coordinator re-runs a failed attempt. Entered billing and the selected
// method are preserved; the flow restarts at intent creation, unless the
// failure rejected the method itself, in which case it rewinds to method
// selection and waits for the caller to pick again.
//
// The coordinator enforces no attempt cap; it reports the running attempt
// count so the caller can apply its own policy.
type Coordinator struct {
	machine *Machine
	logger  *slog.Logger
}

func NewCoordinator(machine *Machine, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{machine: machine, logger: logger}
}

// Attempts returns the number of gateway submissions made so far.
func (c *Coordinator) Attempts() int {
	return c.machine.Attempts()
}

// Retry rewinds a failed attempt and, unless a new method is needed,
// resubmits it. Retrying from any step other than failed is an error.
func (c *Coordinator) Retry(ctx context.Context) error {
	m := c.machine

	m.mu.Lock()
	failed, ok := m.state.(*Failed)
	if !ok {
		step := m.state.Step()
		m.mu.Unlock()
		return domain.NewInvalidStepError(string(step), "retry")
	}

	toSelecting := MethodRejected(failed.Failure)
	m.resetLocked(toSelecting)
	attempts := m.attempts
	onRetry := m.cb.OnRetry
	m.mu.Unlock()

	if onRetry != nil {
		onRetry(attempts + 1)
	}

	if toSelecting {
		c.logger.Info("payment method was rejected, a new selection is required",
			"code", failed.Failure.Code,
			"attempts", attempts,
		)
		return nil
	}

	c.logger.Info("retrying payment submission", "attempts", attempts)
	return m.Submit(ctx)
}
