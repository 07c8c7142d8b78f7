package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookline/payflow/internal/checkout"
	"github.com/bookline/payflow/internal/config"
	"github.com/bookline/payflow/internal/domain"
	"github.com/bookline/payflow/internal/gateway"
	"github.com/google/uuid"
)

func main() {
	var (
		amount     = flag.Int64("amount", 0, "amount in minor units")
		currency   = flag.String("currency", "USD", "currency code")
		customerID = flag.String("customer", "", "customer id")
		methodID   = flag.String("method", "", "payment method id (default method is used when empty)")
		bookingID  = flag.String("booking", "", "booking id the payment is for")
		desc       = flag.String("description", "", "payment description")
		saveMethod = flag.Bool("save-method", false, "save the payment method for later use")
		setDefault = flag.Bool("set-default", false, "make the method the customer default")

		street  = flag.String("street", "", "billing street address")
		city    = flag.String("city", "", "billing city")
		state   = flag.String("state", "", "billing state")
		postal  = flag.String("postal", "", "billing postal code")
		country = flag.String("country", "", "billing country")

		trackID  = flag.String("track", "", "track an existing payment id instead of paying")
		refundID = flag.String("refund", "", "refund an existing payment id instead of paying")
		reason   = flag.String("reason", "", "refund reason")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	client := gateway.NewRetryClient(gateway.NewHTTPClient(cfg.Gateway), cfg.Retry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *trackID != "":
		trackPayment(ctx, client, cfg, logger, *trackID)
	case *refundID != "":
		refundPayment(ctx, client, logger, *refundID, *reason)
	default:
		runPayment(ctx, client, cfg, logger, paymentArgs{
			amount:     *amount,
			currency:   *currency,
			customerID: *customerID,
			methodID:   *methodID,
			bookingID:  *bookingID,
			desc:       *desc,
			saveMethod: *saveMethod,
			setDefault: *setDefault,
			billing: domain.BillingAddress{
				Street:     *street,
				City:       *city,
				State:      *state,
				PostalCode: *postal,
				Country:    *country,
			},
		})
	}
}

type paymentArgs struct {
	amount     int64
	currency   string
	customerID string
	methodID   string
	bookingID  string
	desc       string
	saveMethod bool
	setDefault bool
	billing    domain.BillingAddress
}

func runPayment(ctx context.Context, client gateway.Client, cfg *config.Config, logger *slog.Logger, args paymentArgs) {
	var methods []domain.PaymentMethod
	if args.customerID != "" {
		var err error
		methods, err = client.GetPaymentMethods(ctx, args.customerID)
		if err != nil {
			logger.Error("failed to fetch saved payment methods", "error", err)
			os.Exit(1)
		}
	}

	req := domain.PaymentRequest{
		AmountCents:     args.amount,
		Currency:        args.currency,
		PaymentMethodID: args.methodID,
		BookingID:       args.bookingID,
		Description:     args.desc,
		SaveMethod:      args.saveMethod,
		SetDefault:      args.setDefault,
	}
	if args.billing != (domain.BillingAddress{}) {
		req.BillingAddress = &args.billing
	}

	machine, err := checkout.NewMachine(client, checkout.Options{
		Request:         req,
		Methods:         methods,
		BillingRequired: req.BillingAddress != nil,
		PollInterval:    cfg.Poller.Interval,
		Logger:          logger,
		Callbacks: checkout.Callbacks{
			OnStatusChange: func(u checkout.StatusUpdate) {
				logger.Info("payment status changed", "status", u.Record.Status, "progress", u.Progress)
			},
			OnPollError: func(err error) {
				logger.Warn("status poll failed, will retry", "error", err)
			},
			OnPaymentSuccess: func(rec domain.PaymentRecord) {
				money := domain.Money{AmountCents: rec.AmountCents, Currency: rec.Currency}
				logger.Info("payment completed", "payment_id", rec.ID, "amount", money.Format())
			},
			OnPaymentError: func(f checkout.PaymentFailure) {
				logger.Error("payment failed", "step", f.Step, "code", f.Code, "message", f.Message)
			},
		},
	})
	if err != nil {
		logger.Error("invalid payment request", "error", err)
		os.Exit(1)
	}

	if err := machine.Submit(ctx); err != nil {
		if ctx.Err() != nil {
			if cancelErr := machine.Cancel(); cancelErr == nil {
				logger.Info("payment attempt cancelled")
			}
			return
		}
		os.Exit(1)
	}
}

func trackPayment(ctx context.Context, client gateway.Client, cfg *config.Config, logger *slog.Logger, paymentID string) {
	poller := checkout.NewPoller(client, cfg.Poller.Interval, checkout.PollCallbacks{
		OnStatusChange: func(u checkout.StatusUpdate) {
			logger.Info("payment status changed", "payment_id", paymentID, "status", u.Record.Status, "progress", u.Progress)
		},
		OnSuccess: func(rec domain.PaymentRecord) {
			logger.Info("payment completed", "payment_id", rec.ID)
		},
		OnError: func(status domain.PaymentStatus, reason string) {
			logger.Error("payment did not complete", "status", status, "reason", reason)
		},
		OnPollError: func(err error) {
			logger.Warn("status poll failed, will retry", "error", err)
		},
	}, logger)

	go func() {
		<-ctx.Done()
		poller.Stop()
	}()

	if _, err := poller.Run(ctx, paymentID); err != nil && ctx.Err() == nil {
		os.Exit(1)
	}
}

func refundPayment(ctx context.Context, client gateway.Client, logger *slog.Logger, paymentID, reason string) {
	refund, err := client.ProcessRefund(ctx, gateway.RefundRequest{
		PaymentID: paymentID,
		Reason:    reason,
	}, uuid.NewString())
	if err != nil {
		logger.Error("refund failed", "payment_id", paymentID, "error", err)
		os.Exit(1)
	}
	logger.Info("refund processed", "refund_id", refund.ID, "payment_id", refund.PaymentID)
}
