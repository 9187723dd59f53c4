package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultCurrency       = "NGN"
	DefaultVerifyAttempts = 2

	receiptTimeout = 30 * time.Second

	// maxAmount keeps amount*100 well inside int64 once rounded to float64.
	maxAmount = 1e16
)

type Config struct {
	Currency       string
	VerifyAttempts int
	RetryDelay     time.Duration
	// Strict reports gateway outages during verification as errors instead
	// of folding them into a "failed" outcome.
	Strict bool
}

// Service runs checkout initiation and verification against a Gateway.
// It keeps no state between calls: the reference returned by Initiate is the
// only link to a later Verify.
type Service struct {
	gateway  Gateway
	refs     *ReferenceGenerator
	receipts ReceiptSender
	cfg      Config
	logger   *zap.SugaredLogger
	validate *validator.Validate
	wg       sync.WaitGroup
}

func NewService(gateway Gateway, refs *ReferenceGenerator, logger *zap.SugaredLogger, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	cfg.Currency = strings.ToUpper(cfg.Currency)
	if cfg.VerifyAttempts <= 0 {
		cfg.VerifyAttempts = DefaultVerifyAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return &Service{
		gateway:  gateway,
		refs:     refs,
		cfg:      cfg,
		logger:   logger,
		validate: v,
	}
}

// SetReceiptSender enables receipts for successful verifications.
func (s *Service) SetReceiptSender(r ReceiptSender) {
	s.receipts = r
}

// Wait blocks until in-flight receipts have been handed off.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Initiate(ctx context.Context, req CheckoutRequest) (InitResult, error) {
	req = normalizeCheckout(req)
	if err := s.validateCheckout(req); err != nil {
		return InitResult{}, err
	}

	reference := s.refs.Generate()
	payload := InitializeRequest{
		Email:     req.Email,
		Amount:    ToMinorUnit(req.Amount),
		Currency:  s.cfg.Currency,
		Reference: reference,
		Metadata: Metadata{
			CustomerName: req.CustomerName,
			Address:      req.Address,
			Phone:        req.Phone,
			BusStop:      req.BusStop,
			DeliveryMode: req.DeliveryMode,
			Email:        req.Email,
			CartItems:    req.CartItems,
		},
	}

	res, err := s.gateway.InitializeTransaction(ctx, payload)
	if err != nil {
		s.logger.Errorw("payment initiation failed", "reference", reference, "kind", Kind(err), "error", err.Error())
		return InitResult{}, fmt.Errorf("%w: %w", ErrPaymentInitiationFailed, err)
	}

	res.Reference = reference
	s.logger.Infow("payment initiated",
		"reference", reference,
		"amount", payload.Amount,
		"currency", payload.Currency,
		"items", len(req.CartItems),
	)
	return res, nil
}

func (s *Service) Verify(ctx context.Context, reference string) (VerifyOutcome, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return VerifyOutcome{}, fmt.Errorf("%w: reference is required", ErrInvalidRequest)
	}

	res, err := s.verifyWithRetry(ctx, reference)
	if err != nil {
		s.logger.Errorw("payment verification errored", "reference", reference, "kind", Kind(err), "error", err.Error())
		if s.cfg.Strict {
			return VerifyOutcome{Status: VerifyError, Message: "Payment could not be verified"}, err
		}
		// Outages are reported like a declined payment; callers cannot tell them apart.
		return VerifyOutcome{Status: VerifyFailed, Message: "Payment verification failed"}, nil
	}

	if res.Status != VerifySuccess {
		s.logger.Infow("payment not successful", "reference", reference, "gateway_status", res.GatewayStatus, "message", res.Message)
		return VerifyOutcome{Status: VerifyFailed, Message: "Payment verification failed"}, nil
	}

	s.logger.Infow("payment verified",
		"reference", reference,
		"amount", res.Amount,
		"currency", res.Currency,
		"paid_at", res.PaidAt,
	)
	s.sendReceipt(res)

	return VerifyOutcome{Status: VerifySuccess, Message: "Payment verified successfully"}, nil
}

// verifyWithRetry repeats the lookup on outages only. A lookup is a pure read
// at the provider so repeating it is safe.
func (s *Service) verifyWithRetry(ctx context.Context, reference string) (VerifyResult, error) {
	var (
		res VerifyResult
		err error
	)
	for attempt := 1; attempt <= s.cfg.VerifyAttempts; attempt++ {
		res, err = s.gateway.VerifyTransaction(ctx, reference)
		if err == nil || !errors.Is(err, ErrGatewayUnavailable) || attempt == s.cfg.VerifyAttempts {
			return res, err
		}

		s.logger.Warnw("retrying payment verification", "reference", reference, "attempt", attempt, "error", err.Error())
		timer := time.NewTimer(time.Duration(attempt) * s.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return VerifyResult{Status: VerifyError, Reference: reference}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
	return res, err
}

func (s *Service) sendReceipt(res VerifyResult) {
	if s.receipts == nil || res.CustomerEmail == "" {
		return
	}

	receipt := Receipt{
		Reference: res.Reference,
		Email:     res.CustomerEmail,
		Amount:    res.Amount,
		Currency:  res.Currency,
		PaidAt:    res.PaidAt,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), receiptTimeout)
		defer cancel()

		if err := s.receipts.SendReceipt(ctx, receipt); err != nil {
			s.logger.Errorw("failed to send payment receipt", "reference", receipt.Reference, "error", err.Error())
		}
	}()
}

func (s *Service) validateCheckout(req CheckoutRequest) error {
	if math.IsInf(req.Amount, 0) || math.IsNaN(req.Amount) {
		return fmt.Errorf("%w: amount must be a finite number", ErrInvalidRequest)
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}

		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return fmt.Errorf("%w: missing or invalid fields: %s", ErrInvalidRequest, strings.Join(fields, ", "))
	}

	// The gateway only sees the minor unit, so the positive check has to
	// hold after scaling as well.
	if req.Amount > maxAmount {
		return fmt.Errorf("%w: amount exceeds %.0f", ErrInvalidRequest, maxAmount)
	}
	if ToMinorUnit(req.Amount) < 1 {
		return fmt.Errorf("%w: amount is below the smallest currency unit", ErrInvalidRequest)
	}
	return nil
}

func normalizeCheckout(req CheckoutRequest) CheckoutRequest {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	req.BusStop = strings.TrimSpace(req.BusStop)
	req.DeliveryMode = strings.TrimSpace(req.DeliveryMode)
	req.Email = strings.TrimSpace(req.Email)
	return req
}

// ToMinorUnit converts an amount in the main currency unit to the provider's
// minor unit (kobo, cents).
func ToMinorUnit(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
