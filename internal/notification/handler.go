package notification

import (
	"context"
	"errors"
	"fmt"

	"stayhub/internal/data/repository"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

// ErrUndeliverable marks a message that can never succeed, such as an
// unreadable payload. The consumer drops it to the dead-letter queue.
var ErrUndeliverable = errors.New("undeliverable notification")

type Handler struct {
	repo     *repository.Repository
	mailer   Mailer
	deduper  Deduper
	currency string
	log      *zap.Logger
}

func NewHandler(repo *repository.Repository, mailer Mailer, deduper Deduper, currency string, log *zap.Logger) *Handler {
	return &Handler{
		repo:     repo,
		mailer:   mailer,
		deduper:  deduper,
		currency: currency,
		log:      log.With(zap.String("component", "notification_handler")),
	}
}

// Handle processes one delivery. A nil return means the message may be acked.
func (h *Handler) Handle(ctx context.Context, key string, body []byte) error {
	var (
		entityID string
		email    string
		render   func(ctx context.Context) (*Message, error)
	)

	switch key {
	case RKPaymentCompleted:
		ev, err := decode[PaymentCompleted](body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUndeliverable, err)
		}
		entityID, email = ev.PaymentID, ev.UserEmail
		render = func(ctx context.Context) (*Message, error) { return h.paymentConfirmation(ctx, ev) }

	case RKBookingCreated:
		ev, err := decode[BookingCreated](body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUndeliverable, err)
		}
		entityID, email = ev.BookingID, ev.UserEmail
		render = func(ctx context.Context) (*Message, error) { return h.bookingReceived(ctx, ev) }

	default:
		h.log.Warn("Skipping unknown routing key", zap.String("routing_key", key))
		return nil
	}

	if entityID == "" || email == "" {
		return fmt.Errorf("%w: %s missing recipient or id", ErrUndeliverable, key)
	}

	dedupKey := key + ":" + entityID
	claimed, err := h.deduper.Claim(ctx, dedupKey)
	if err != nil {
		return err
	}
	if !claimed {
		h.log.Info("Duplicate notification skipped", zap.String("key", dedupKey))
		return nil
	}

	msg, err := render(ctx)
	if err == nil && msg != nil {
		err = h.mailer.Send(ctx, *msg)
	}
	if err != nil {
		if relErr := h.deduper.Release(ctx, dedupKey); relErr != nil {
			h.log.Error("Failed to release dedup key", zap.Error(relErr), zap.String("key", dedupKey))
		}
		return err
	}

	if msg != nil {
		h.log.Info("Notification sent",
			zap.String("routing_key", key),
			zap.String("to", msg.To),
			zap.String("entity_id", entityID),
		)
	}
	return nil
}

// paymentConfirmation returns nil when the payment no longer exists.
func (h *Handler) paymentConfirmation(ctx context.Context, ev PaymentCompleted) (*Message, error) {
	id, err := utils.ParseUUID(ev.PaymentID)
	if err != nil {
		h.log.Warn("Invalid payment id in event", zap.String("payment_id", ev.PaymentID))
		return nil, nil
	}

	payment, err := h.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		h.log.Warn("Payment not found for confirmation", zap.String("payment_id", ev.PaymentID))
		return nil, nil
	}

	firstName := ""
	booking, err := h.repo.Booking.FindByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking != nil {
		user, err := h.repo.User.FindByID(ctx, booking.UserID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			firstName = user.FirstName
		}
	}

	txnID := ""
	if payment.ChapaTransactionID != nil {
		txnID = *payment.ChapaTransactionID
	}

	body := fmt.Sprintf("Hello %s,\n\n"+
		"Your payment for booking %s has been successfully processed.\n"+
		"Amount Paid: %s %s\n"+
		"Transaction Reference: %s\n"+
		"Chapa Transaction ID: %s\n\n"+
		"Thank you for your payment!\n\n"+
		"Best regards,\n"+
		"Your Booking Team",
		firstName, payment.BookingID, payment.Amount.StringFixed(2), h.currency, payment.TxRef, txnID)

	return &Message{To: ev.UserEmail, Subject: "Payment Confirmation", Body: body}, nil
}

func (h *Handler) bookingReceived(ctx context.Context, ev BookingCreated) (*Message, error) {
	id, err := utils.ParseUUID(ev.BookingID)
	if err != nil {
		h.log.Warn("Invalid booking id in event", zap.String("booking_id", ev.BookingID))
		return nil, nil
	}

	booking, err := h.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		h.log.Warn("Booking not found for notification", zap.String("booking_id", ev.BookingID))
		return nil, nil
	}

	listingName := booking.PropertyID.String()
	listing, err := h.repo.Listing.FindByID(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	if listing != nil {
		listingName = listing.Name
	}

	firstName := ""
	user, err := h.repo.User.FindByID(ctx, booking.UserID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		firstName = user.FirstName
	}

	body := fmt.Sprintf("Hello %s,\n\n"+
		"Your booking %s at %s from %s to %s has been received.\n"+
		"Total Price: %s %s\n\n"+
		"Complete the payment to confirm your stay.\n\n"+
		"Best regards,\n"+
		"Your Booking Team",
		firstName, booking.ID, listingName,
		booking.StartDate.Format(utils.DateLayout), booking.EndDate.Format(utils.DateLayout),
		booking.TotalPrice.StringFixed(2), h.currency)

	return &Message{To: ev.UserEmail, Subject: "Booking Received", Body: body}, nil
}
