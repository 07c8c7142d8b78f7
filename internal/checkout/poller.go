package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bookline/payflow/internal/domain"
	"github.com/bookline/payflow/internal/gateway"
)

// Fixed progress percentage per payment status.
var progressByStatus = map[domain.PaymentStatus]int{
	domain.StatusPending:           10,
	domain.StatusProcessing:        50,
	domain.StatusCompleted:         100,
	domain.StatusRefunded:          100,
	domain.StatusPartiallyRefunded: 75,
	domain.StatusFailed:            0,
	domain.StatusCancelled:         0,
}

// ProgressFor maps a payment status to its progress percentage.
func ProgressFor(status domain.PaymentStatus) int {
	return progressByStatus[status]
}

// StepsFor derives the ordered progress markers for a payment record.
func StepsFor(rec domain.PaymentRecord) []StatusStep {
	createdAt := rec.CreatedAt
	initiated := StatusStep{Label: "Payment initiated", Completed: true, Timestamp: &createdAt}
	processing := StatusStep{Label: "Processing payment"}
	completed := StatusStep{Label: "Payment completed"}

	switch rec.Status {
	case domain.StatusPending:
		initiated.Current = true
		initiated.Completed = false
	case domain.StatusProcessing:
		processing.Current = true
	case domain.StatusCompleted:
		processing.Completed = true
		completed.Completed = true
		completed.Timestamp = rec.CompletedAt
	case domain.StatusFailed:
		return []StatusStep{initiated, processing, {Label: "Payment failed", Current: true}}
	case domain.StatusCancelled:
		return []StatusStep{initiated, processing, {Label: "Payment cancelled", Current: true}}
	case domain.StatusRefunded, domain.StatusPartiallyRefunded:
		processing.Completed = true
		completed.Completed = true
		completed.Timestamp = rec.CompletedAt
		refund := StatusStep{Label: "Refund issued"}
		if rec.Refund != nil {
			refundedAt := rec.Refund.CreatedAt
			refund.Timestamp = &refundedAt
		}
		if rec.Status == domain.StatusRefunded {
			refund.Completed = true
		} else {
			refund.Current = true
		}
		return []StatusStep{initiated, processing, completed, refund}
	}
	return []StatusStep{initiated, processing, completed}
}

// PollCallbacks are the poller's event sinks. Only status transitions are
// reported; a fetch that observes an unchanged status emits nothing.
type PollCallbacks struct {
	OnStatusChange func(StatusUpdate)
	OnSuccess      func(domain.PaymentRecord)
	OnError        func(status domain.PaymentStatus, reason string)
	OnPollError    func(error)
}

// Poller repeatedly fetches one payment's record until its status is
// terminal. A Poller tracks a single payment and is not reusable.
//
// Stop is safe to call from any state, including before the poller starts
// and after it reached a terminal status; once Stop returns, no further
// fetch starts and no further emission passes the stopped check. An
// emission already past that check on the polling goroutine may still
// deliver; Stop followed by waiting on Done is the fence when strict
// silence is needed across goroutines.
type Poller struct {
	gw       gateway.Client
	interval time.Duration
	cb       PollCallbacks
	logger   *slog.Logger

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	last    domain.PaymentStatus
	done    chan struct{}
}

func NewPoller(gw gateway.Client, interval time.Duration, cb PollCallbacks, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		gw:       gw,
		interval: interval,
		cb:       cb,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the poll loop on its own goroutine. Done is closed when the
// loop exits.
func (p *Poller) Start(ctx context.Context, paymentID string) {
	go func() {
		defer close(p.done)
		if _, err := p.Run(ctx, paymentID); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("status polling ended", "payment_id", paymentID, "error", err)
		}
	}()
}

// Done reports completion of a loop started with Start.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Stop cancels the poll loop. Any queued fetch is abandoned. Stop does not
// wait for the loop to exit; use Done for that.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Run fetches immediately, then on a fixed interval, until the payment
// reaches a terminal status, the context is cancelled, or Stop is called.
// It returns the terminal record.
//
// Transient fetch failures are reported through OnPollError and do not end
// the loop; the next fetch stays on schedule.
func (p *Poller) Run(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, context.Canceled
	}
	p.cancel = cancel
	p.mu.Unlock()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		rec, err := p.gw.GetPayment(ctx, paymentID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("status fetch failed", "payment_id", paymentID, "error", err)
			p.emitPollError(domain.NewPollingError(err))
			timer.Reset(p.interval)
			continue
		}

		if last := p.lastStatus(); rec.Status != last {
			// The gateway can answer polls out of order; a status that
			// cannot follow the last observed one is ignored rather than
			// reported as a regression.
			if last != "" {
				prev := domain.PaymentRecord{ID: paymentID, Status: last}
				if err := prev.CanTransitionTo(rec.Status); err != nil {
					p.logger.Warn("ignoring out-of-order status",
						"payment_id", paymentID,
						"from", last,
						"to", rec.Status,
					)
					timer.Reset(p.interval)
					continue
				}
			}
			p.setLastStatus(rec.Status)
			p.emitStatusChange(*rec)
		}

		if rec.Status.IsTerminal() {
			switch rec.Status {
			case domain.StatusCompleted:
				p.emitSuccess(*rec)
			case domain.StatusFailed, domain.StatusCancelled:
				p.emitError(rec)
			}
			return rec, nil
		}

		timer.Reset(p.interval)
	}
}

func (p *Poller) lastStatus() domain.PaymentStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Poller) setLastStatus(s domain.PaymentStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = s
}

func (p *Poller) emitStatusChange(rec domain.PaymentRecord) {
	cb := p.sink(func() bool { return p.cb.OnStatusChange != nil })
	if cb {
		p.cb.OnStatusChange(StatusUpdate{
			Record:   rec,
			Progress: ProgressFor(rec.Status),
			Steps:    StepsFor(rec),
		})
	}
}

func (p *Poller) emitSuccess(rec domain.PaymentRecord) {
	if p.sink(func() bool { return p.cb.OnSuccess != nil }) {
		p.cb.OnSuccess(rec)
	}
}

func (p *Poller) emitError(rec *domain.PaymentRecord) {
	reason := "Payment failed"
	if rec.Status == domain.StatusCancelled {
		reason = "Payment was cancelled"
	}
	if rec.FailureReason != nil && *rec.FailureReason != "" {
		reason = *rec.FailureReason
	}
	if p.sink(func() bool { return p.cb.OnError != nil }) {
		p.cb.OnError(rec.Status, reason)
	}
}

func (p *Poller) emitPollError(err error) {
	if p.sink(func() bool { return p.cb.OnPollError != nil }) {
		p.cb.OnPollError(err)
	}
}

// sink gates an emission on the poller not having been stopped.
func (p *Poller) sink(present func() bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.stopped && present()
}
