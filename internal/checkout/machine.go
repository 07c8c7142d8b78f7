package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/payflow/internal/domain"
	"github.com/bookline/payflow/internal/gateway"
	"github.com/bookline/payflow/internal/validation"
)

// Machine owns one payment attempt: method selection, billing collection,
// intent creation, gateway submission and confirmation. State transitions
// are strictly sequential; a transition begins only after the previous one
// fully resolved.
//
// At most one submission is in flight per Machine. A second Submit while
// one is pending is a silent no-op, not a queued retry.
type Machine struct {
	gw     gateway.Client
	logger *slog.Logger
	cb     Callbacks

	req             domain.PaymentRequest
	methods         []domain.PaymentMethod
	billingRequired bool
	pollInterval    time.Duration

	mu           sync.Mutex
	state        State
	method       *domain.PaymentMethod
	billing      *domain.BillingAddress
	intent       *domain.PaymentIntent
	attempts     int
	inFlight     bool
	resolved     bool
	cancelSubmit context.CancelFunc
	poller       *Poller
}

// Options configures a Machine.
type Options struct {
	Request domain.PaymentRequest
	// Methods are the customer's saved payment methods, as provided by the
	// caller. At most one is expected to be flagged default.
	Methods []domain.PaymentMethod
	// BillingRequired forces billing collection before submission.
	BillingRequired bool
	PollInterval    time.Duration
	Callbacks       Callbacks
	Logger          *slog.Logger
}

// NewMachine validates the request and positions the flow at its first
// applicable step. Selection and billing are skippable: a usable method
// plus a complete billing address (or none required) jumps straight to
// intent creation.
func NewMachine(gw gateway.Client, opts Options) (*Machine, error) {
	if err := opts.Request.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	m := &Machine{
		gw:              gw,
		logger:          logger,
		cb:              opts.Callbacks,
		req:             opts.Request,
		methods:         opts.Methods,
		billingRequired: opts.BillingRequired,
		pollInterval:    pollInterval,
	}

	if addr := opts.Request.BillingAddress; addr != nil {
		a := *addr
		m.billing = &a
	}

	if method, ok := m.initialMethod(); ok {
		m.method = &method
		m.advanceFromSelectionLocked()
	} else {
		m.state = &SelectingMethod{Methods: opts.Methods}
	}

	return m, nil
}

// initialMethod resolves the request's explicit method id, falling back to
// the customer's default method.
func (m *Machine) initialMethod() (domain.PaymentMethod, bool) {
	if id := m.req.PaymentMethodID; id != "" {
		return m.lookupMethod(id), true
	}
	return domain.DefaultMethod(m.methods)
}

func (m *Machine) lookupMethod(id string) domain.PaymentMethod {
	for _, saved := range m.methods {
		if saved.ID == id {
			return saved
		}
	}
	// Unknown ids are treated as new pre-tokenized references.
	return domain.PaymentMethod{ID: id, Type: domain.MethodCreditCard}
}

// CurrentState returns the machine's state variant.
func (m *Machine) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns how many gateway submissions were made so far.
func (m *Machine) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// SelectMethod picks a saved method by id, or registers an unknown id as a
// new pre-tokenized method reference. An empty id is a validation error.
func (m *Machine) SelectMethod(methodID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.(*SelectingMethod); !ok {
		return domain.NewInvalidStepError(string(m.state.Step()), "method selection")
	}
	if methodID == "" {
		return domain.NewValidationError(map[string]string{
			"paymentMethod": "Select a payment method",
		})
	}

	method := m.lookupMethod(methodID)
	m.method = &method
	m.advanceFromSelectionLocked()
	return nil
}

func (m *Machine) advanceFromSelectionLocked() {
	if m.billingRequired && !m.hasValidBillingLocked() {
		m.state = &CollectingBilling{Method: *m.method}
		return
	}
	m.state = &CreatingIntent{Method: *m.method, Billing: m.billing}
}

func (m *Machine) hasValidBillingLocked() bool {
	if m.billing == nil {
		return false
	}
	_, ok := validation.ValidateBillingAddress(*m.billing)
	return ok
}

// EnterBilling validates the billing address. All fields are checked so
// every error surfaces together; the step does not advance while any error
// exists, and the rejected entry stays visible on the state.
func (m *Machine) EnterBilling(addr domain.BillingAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	collecting, ok := m.state.(*CollectingBilling)
	if !ok {
		return domain.NewInvalidStepError(string(m.state.Step()), "billing entry")
	}

	if errs, valid := validation.ValidateBillingAddress(addr); !valid {
		collecting.FieldErrors = errs
		return domain.NewValidationError(errs)
	}

	a := addr
	m.billing = &a
	m.state = &CreatingIntent{Method: collecting.Method, Billing: m.billing}
	return nil
}

// Cancel aborts a non-terminal attempt. No callback fires for the attempt
// after Cancel returns. Cancelling a succeeded or failed attempt is an
// invalid transition; cancelling twice is a no-op.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	switch m.state.(type) {
	case *Succeeded:
		m.mu.Unlock()
		return domain.NewInvalidTransitionError(string(StepSucceeded), string(StepCancelled))
	case *Failed:
		m.mu.Unlock()
		return domain.NewInvalidTransitionError(string(StepFailed), string(StepCancelled))
	case *Cancelled:
		m.mu.Unlock()
		return nil
	}
	m.state = &Cancelled{}
	m.resolved = true
	cancel := m.cancelSubmit
	poller := m.poller
	m.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// Submit runs the attempt from intent creation to a terminal outcome,
// blocking until the payment succeeds, fails, or the context is cancelled.
// It must be called from the creating-intent step.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.inFlight {
		m.logger.Debug("submit ignored, attempt already in flight")
		m.mu.Unlock()
		return nil
	}
	if _, ok := m.state.(*CreatingIntent); !ok {
		step := m.state.Step()
		m.mu.Unlock()
		return domain.NewInvalidStepError(string(step), "submit")
	}
	m.inFlight = true
	ctx, cancel := context.WithCancel(ctx)
	m.cancelSubmit = cancel
	method := *m.method
	billing := m.billing
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		m.inFlight = false
		m.cancelSubmit = nil
		m.poller = nil
		m.mu.Unlock()
	}()

	return m.run(ctx, method, billing)
}

func (m *Machine) run(ctx context.Context, method domain.PaymentMethod, billing *domain.BillingAddress) error {
	intent, err := m.createIntent(ctx, method)
	if err != nil {
		return m.concludeGatewayError(ctx, StepCreatingIntent, err)
	}

	var paymentID string
	refreshed := false
	for {
		// An expired intent is recoverable once: recreate and resubmit.
		if intent.Expired(time.Now()) {
			if refreshed {
				expiredErr := domain.NewIntentExpiredError(intent.ID)
				return m.fail(PaymentFailure{
					Step:    StepCreatingIntent,
					Code:    domain.ErrCodeIntentExpired,
					Message: expiredErr.Message,
					Err:     expiredErr,
				})
			}
			refreshed = true
			m.logger.Info("payment intent expired, creating a fresh one", "intent_id", intent.ID)
			m.setState(&CreatingIntent{Method: method, Billing: billing})
			intent, err = m.createIntent(ctx, method)
			if err != nil {
				return m.concludeGatewayError(ctx, StepCreatingIntent, err)
			}
			continue
		}

		m.setState(&Submitting{Intent: *intent})

		resp, err := m.gw.ConfirmPayment(ctx, gateway.ConfirmPaymentRequest{
			IntentID:        intent.ID,
			PaymentMethodID: method.ID,
			BillingAddress:  billing,
			BookingID:       m.req.BookingID,
			Description:     m.req.Description,
			SaveMethod:      m.req.SaveMethod,
			SetDefault:      m.req.SetDefault,
			Metadata:        m.req.Metadata,
		}, uuid.NewString())
		if err != nil {
			if !refreshed && Categorize(err) == CategoryExpiredIntent {
				refreshed = true
				m.logger.Info("gateway rejected expired intent, creating a fresh one", "intent_id", intent.ID)
				m.setState(&CreatingIntent{Method: method, Billing: billing})
				intent, err = m.createIntent(ctx, method)
				if err != nil {
					return m.concludeGatewayError(ctx, StepCreatingIntent, err)
				}
				continue
			}
			m.bumpAttempts()
			return m.concludeGatewayError(ctx, StepSubmitting, err)
		}

		// A resubmission after an intent refresh is the same attempt; the
		// counter moves only when a confirmation settles.
		m.bumpAttempts()

		if !resp.Success {
			declineErr := domain.NewSubmissionDeclinedError(resp.ErrorMessage, nil)
			return m.fail(PaymentFailure{
				Step:        StepSubmitting,
				Code:        resp.ErrorCode,
				Message:     declineErr.Message,
				FieldErrors: resp.ValidationErrors,
				Err:         declineErr,
			})
		}

		paymentID = resp.PaymentID
		break
	}

	m.setState(&Confirming{PaymentID: paymentID})

	// Hand off to the status poller until the gateway reports a terminal
	// status.
	poller := NewPoller(m.gw, m.pollInterval, PollCallbacks{
		OnStatusChange: m.forwardStatusChange,
		OnPollError:    m.forwardPollError,
	}, m.logger)

	m.mu.Lock()
	m.poller = poller
	m.mu.Unlock()

	rec, err := poller.Run(ctx, paymentID)
	if err != nil {
		m.markCancelled()
		return err
	}

	switch rec.Status {
	case domain.StatusCompleted, domain.StatusRefunded, domain.StatusPartiallyRefunded:
		return m.succeed(*rec)
	default:
		reason := "Payment failed"
		if rec.Status == domain.StatusCancelled {
			reason = "Payment was cancelled"
		}
		if rec.FailureReason != nil && *rec.FailureReason != "" {
			reason = *rec.FailureReason
		}
		declineErr := domain.NewSubmissionDeclinedError(reason, nil)
		return m.fail(PaymentFailure{
			Step:    StepConfirming,
			Code:    domain.ErrCodeSubmissionDeclined,
			Message: reason,
			Err:     declineErr,
		})
	}
}

func (m *Machine) createIntent(ctx context.Context, method domain.PaymentMethod) (*domain.PaymentIntent, error) {
	intent, err := m.gw.CreateIntent(ctx, gateway.CreateIntentRequest{
		AmountCents:        m.req.AmountCents,
		Currency:           m.req.Currency,
		AllowedMethodTypes: []domain.PaymentMethodType{method.Type},
		Metadata:           m.req.Metadata,
	}, uuid.NewString())
	if err != nil {
		return nil, domain.NewIntentCreationError(err)
	}

	m.mu.Lock()
	m.intent = intent
	m.mu.Unlock()
	return intent, nil
}

// concludeGatewayError turns a gateway call failure into the attempt's
// terminal failure, unless the context was cancelled, in which case the
// attempt ends silently as cancelled.
func (m *Machine) concludeGatewayError(ctx context.Context, at Step, err error) error {
	if ctx.Err() != nil {
		m.markCancelled()
		return ctx.Err()
	}

	failure := PaymentFailure{Step: at, Message: err.Error(), Err: err}
	if gwErr, ok := gateway.IsGatewayError(err); ok {
		failure.Code = gwErr.Code
		failure.Message = gwErr.Message
	} else if at == StepCreatingIntent {
		failure.Code = domain.ErrCodeIntentCreation
	}
	return m.fail(failure)
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	if !isTerminalState(m.state) {
		m.state = s
	}
	m.mu.Unlock()
}

func (m *Machine) bumpAttempts() {
	m.mu.Lock()
	m.attempts++
	m.mu.Unlock()
}

func (m *Machine) markCancelled() {
	m.mu.Lock()
	if !isTerminalState(m.state) {
		m.state = &Cancelled{}
		m.resolved = true
	}
	m.mu.Unlock()
}

// succeed reports the terminal success exactly once.
func (m *Machine) succeed(rec domain.PaymentRecord) error {
	m.mu.Lock()
	if m.resolved || isTerminalState(m.state) {
		m.mu.Unlock()
		return nil
	}
	m.resolved = true
	m.state = &Succeeded{Record: rec}
	cb := m.cb.OnPaymentSuccess
	m.mu.Unlock()

	m.logger.Info("payment succeeded", "payment_id", rec.ID, "amount", rec.AmountCents, "currency", rec.Currency)
	if cb != nil {
		cb(rec)
	}
	return nil
}

// fail reports the terminal failure exactly once and returns the failure's
// error so callers can inspect it.
func (m *Machine) fail(f PaymentFailure) error {
	m.mu.Lock()
	if m.resolved || isTerminalState(m.state) {
		m.mu.Unlock()
		return f.Err
	}
	m.resolved = true
	m.state = &Failed{Failure: f}
	cb := m.cb.OnPaymentError
	m.mu.Unlock()

	m.logger.Warn("payment failed", "step", f.Step, "code", f.Code, "message", f.Message)
	if cb != nil {
		cb(f)
	}
	return f.Err
}

func (m *Machine) forwardStatusChange(u StatusUpdate) {
	m.mu.Lock()
	drop := m.resolved
	cb := m.cb.OnStatusChange
	m.mu.Unlock()

	if drop || cb == nil {
		return
	}
	cb(u)
}

func (m *Machine) forwardPollError(err error) {
	m.mu.Lock()
	drop := m.resolved
	cb := m.cb.OnPollError
	m.mu.Unlock()

	if drop || cb == nil {
		return
	}
	cb(err)
}

// resetLocked rewinds a failed attempt for retry. Billing entry is always
// preserved; the method is cleared only when it was rejected outright.
func (m *Machine) resetLocked(toSelecting bool) {
	m.resolved = false
	m.intent = nil
	if toSelecting || m.method == nil {
		m.method = nil
		m.state = &SelectingMethod{Methods: m.methods}
		return
	}
	m.state = &CreatingIntent{Method: *m.method, Billing: m.billing}
}
