package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository"
	"stayhub/internal/dto/request"
	"stayhub/internal/dto/response"
	"stayhub/internal/gateway"
	"stayhub/internal/notification"
	"stayhub/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	InitiatePayment(ctx context.Context, caller Caller, bookingID string) (*response.InitiatePaymentResponse, error)
	VerifyPayment(ctx context.Context, caller Caller, req *request.VerifyPaymentRequest) (*response.VerifyPaymentResponse, error)
	GetPayment(ctx context.Context, caller Caller, txRef string) (*response.PaymentResponse, error)
	ListBookingPayments(ctx context.Context, caller Caller, bookingID string) ([]response.PaymentResponse, error)
}

// PaymentOptions holds the gateway settings that do not belong to the client.
type PaymentOptions struct {
	Currency string
	// CallbackBaseURL is the public origin the gateway calls back on.
	CallbackBaseURL string
	ReturnURL       string
}

type paymentService struct {
	repo       *repository.Repository
	gateway    gateway.Gateway
	dispatcher notification.Dispatcher
	opts       PaymentOptions
	log        *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	gw gateway.Gateway,
	dispatcher notification.Dispatcher,
	opts PaymentOptions,
	log *zap.Logger,
) PaymentService {
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &paymentService{
		repo:       repo,
		gateway:    gw,
		dispatcher: dispatcher,
		opts:       opts,
		log:        log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, caller Caller, bookingID string) (*response.InitiatePaymentResponse, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, notFound("booking")
	}
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, internal("find booking", err)
	}
	if booking == nil {
		return nil, notFound("booking")
	}
	if err := AuthorizeBooking(caller, booking, ActionPay); err != nil {
		return nil, err
	}

	if booking.Status == entity.BookingStatusCanceled {
		return nil, invalid("booking is canceled")
	}
	paid, err := s.repo.Payment.HasCompletedByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, internal("check completed payment", err)
	}
	if paid {
		return nil, invalid("booking is already paid")
	}

	pending, err := s.repo.Payment.FindPendingByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, internal("find pending payment", err)
	}
	if pending != nil {
		if pending.Amount.Equal(booking.TotalPrice) {
			s.log.Info("Reusing pending payment",
				zap.String("booking_id", booking.ID.String()),
				zap.String("tx_ref", pending.TxRef),
			)
			return &response.InitiatePaymentResponse{CheckoutURL: pending.CheckoutURL, TxRef: pending.TxRef}, nil
		}
		if err := s.supersede(ctx, booking, pending); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.User.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, internal("find user", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	txRef := utils.GenerateTxRef()
	result, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Amount:      booking.TotalPrice,
		Currency:    s.opts.Currency,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		TxRef:       txRef,
		CallbackURL: s.callbackURL(txRef),
		ReturnURL:   s.opts.ReturnURL,
		Customization: gateway.Customization{
			Title:       "Booking Payment",
			Description: "Payment for booking",
		},
	})
	if err != nil {
		s.log.Error("Gateway initialize failed",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("tx_ref", txRef),
		)
		return nil, fmt.Errorf("initialize payment: %w: %w", ErrGateway, err)
	}
	if !result.Success {
		return nil, &RejectedError{Payload: result.Payload}
	}

	now := time.Now()
	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:   booking.ID,
		Amount:      booking.TotalPrice,
		TxRef:       txRef,
		CheckoutURL: result.CheckoutURL,
		Status:      entity.PaymentStatusPending,
	}

	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPendingExists) {
			return s.concurrentWinner(ctx, booking.ID, txRef)
		}
		// The gateway has a live transaction we could not record.
		s.log.Error("Payment initialized but not recorded, reconcile manually",
			zap.Error(err),
			zap.String("tx_ref", txRef),
			zap.String("booking_id", booking.ID.String()),
			zap.String("amount", booking.TotalPrice.StringFixed(2)),
			zap.String("checkout_url", result.CheckoutURL),
		)
		return nil, internal("record payment", err)
	}

	s.log.Info("Payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("tx_ref", txRef),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)

	return &response.InitiatePaymentResponse{CheckoutURL: payment.CheckoutURL, TxRef: payment.TxRef}, nil
}

// supersede fails a pending payment whose amount no longer matches the
// booking total so a new one can be opened for the current price.
func (s *paymentService) supersede(ctx context.Context, booking *entity.Booking, stale *entity.Payment) error {
	applied, err := s.repo.Payment.TransitionFromPending(ctx, stale.ID, entity.PaymentStatusFailed, nil)
	if err != nil {
		return internal("supersede payment", err)
	}
	if !applied {
		// A verify settled it first.
		current, err := s.repo.Payment.FindByID(ctx, stale.ID)
		if err != nil {
			return internal("reload payment", err)
		}
		if current != nil && current.Status == entity.PaymentStatusCompleted {
			return invalid("booking is already paid")
		}
		return nil
	}

	// The old checkout link is still live at the gateway.
	s.log.Error("Pending payment superseded after price change, reconcile if paid",
		zap.String("booking_id", booking.ID.String()),
		zap.String("tx_ref", stale.TxRef),
		zap.String("amount", stale.Amount.StringFixed(2)),
		zap.String("booking_total", booking.TotalPrice.StringFixed(2)),
	)
	return nil
}

// concurrentWinner returns the pending payment another request recorded
// first. The gateway transaction opened under lostTxRef is abandoned.
func (s *paymentService) concurrentWinner(ctx context.Context, bookingID uuid.UUID, lostTxRef string) (*response.InitiatePaymentResponse, error) {
	winner, err := s.repo.Payment.FindPendingByBookingID(ctx, bookingID)
	if err != nil {
		return nil, internal("find pending payment", err)
	}
	if winner == nil {
		return nil, internal("record payment", errors.New("pending payment vanished after conflict"))
	}

	s.log.Warn("Concurrent initiate lost, returning existing payment",
		zap.String("booking_id", bookingID.String()),
		zap.String("tx_ref", winner.TxRef),
		zap.String("abandoned_tx_ref", lostTxRef),
	)
	return &response.InitiatePaymentResponse{CheckoutURL: winner.CheckoutURL, TxRef: winner.TxRef}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, caller Caller, req *request.VerifyPaymentRequest) (*response.VerifyPaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, notFound("payment")
	}

	payment, err := s.repo.Payment.FindByTxRef(ctx, req.TxRef)
	if err != nil {
		return nil, internal("find payment", err)
	}
	if payment == nil {
		return nil, notFound("payment")
	}

	// Unauthenticated calls are gateway callbacks and can only trigger a re-check.
	if caller.Authenticated {
		booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
		if err != nil {
			return nil, internal("find booking", err)
		}
		if err := AuthorizePayment(caller, booking, ActionRead); err != nil {
			return nil, err
		}
	}

	if payment.Status.IsTerminal() {
		return &response.VerifyPaymentResponse{Status: payment.Status}, nil
	}

	if req.RefID != "" && req.TrxRef == payment.TxRef && req.Status == "success" {
		if err := s.repo.Payment.SetGatewayTransactionID(ctx, payment.ID, req.RefID); err != nil {
			s.log.Warn("Failed to record callback reference",
				zap.Error(err),
				zap.String("tx_ref", payment.TxRef),
				zap.String("ref_id", req.RefID),
			)
		}
	}

	result, err := s.gateway.Verify(ctx, payment.TxRef)
	if err != nil {
		s.log.Error("Gateway verify failed",
			zap.Error(err),
			zap.String("tx_ref", payment.TxRef),
		)
		return nil, fmt.Errorf("verify payment: %w: %w", ErrGateway, err)
	}
	if !result.Success {
		return nil, &RejectedError{Payload: result.Payload}
	}

	target := entity.PaymentStatusFailed
	if result.Status == "success" {
		target = entity.PaymentStatusCompleted
	}
	var reference *string
	if result.Reference != "" {
		reference = &result.Reference
	}

	applied, err := s.repo.Payment.TransitionFromPending(ctx, payment.ID, target, reference)
	if err != nil {
		return nil, internal("update payment status", err)
	}

	if !applied {
		// Another verify reached a terminal state first; report what it wrote.
		current, err := s.repo.Payment.FindByID(ctx, payment.ID)
		if err != nil {
			return nil, internal("reload payment", err)
		}
		if current == nil {
			return nil, notFound("payment")
		}
		return &response.VerifyPaymentResponse{Status: current.Status, ChapaResponse: result.Payload}, nil
	}

	s.log.Info("Payment verified",
		zap.String("payment_id", payment.ID.String()),
		zap.String("tx_ref", payment.TxRef),
		zap.String("status", string(target)),
	)

	if target == entity.PaymentStatusCompleted {
		s.notifyCompleted(ctx, payment)
	}

	return &response.VerifyPaymentResponse{Status: target, ChapaResponse: result.Payload}, nil
}

func (s *paymentService) notifyCompleted(ctx context.Context, payment *entity.Payment) {
	booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
	if err != nil || booking == nil {
		s.log.Error("Cannot notify payment, booking unavailable",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
		)
		return
	}
	user, err := s.repo.User.FindByID(ctx, booking.UserID)
	if err != nil || user == nil {
		s.log.Error("Cannot notify payment, user unavailable",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
		)
		return
	}
	s.dispatcher.Enqueue(ctx, notification.NewPaymentCompleted(user.Email, payment.ID.String()))
}

func (s *paymentService) GetPayment(ctx context.Context, caller Caller, txRef string) (*response.PaymentResponse, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}

	payment, err := s.repo.Payment.FindByTxRef(ctx, txRef)
	if err != nil {
		return nil, internal("find payment", err)
	}
	if payment == nil {
		return nil, notFound("payment")
	}
	booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
	if err != nil {
		return nil, internal("find booking", err)
	}
	if err := AuthorizePayment(caller, booking, ActionRead); err != nil {
		return nil, err
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) ListBookingPayments(ctx context.Context, caller Caller, bookingID string) ([]response.PaymentResponse, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, notFound("booking")
	}
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, internal("find booking", err)
	}
	if booking == nil {
		return nil, notFound("booking")
	}
	if err := AuthorizeBooking(caller, booking, ActionRead); err != nil {
		return nil, err
	}

	payments, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, internal("list payments", err)
	}

	results := make([]response.PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		results = append(results, response.PaymentToResponse(payment))
	}
	return results, nil
}

func (s *paymentService) callbackURL(txRef string) string {
	return strings.TrimRight(s.opts.CallbackBaseURL, "/") + "/api/payments/verify/" + txRef + "/"
}
