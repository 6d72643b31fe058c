package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository/repotest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type memDeduper struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemDeduper() *memDeduper { return &memDeduper{keys: map[string]bool{}} }

func (d *memDeduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys[key] {
		return false, nil
	}
	d.keys[key] = true
	return true, nil
}

func (d *memDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, key)
	return nil
}

func seedPayment(t *testing.T, store *repotest.Store) (*entity.User, *entity.Payment) {
	t.Helper()
	ctx := context.Background()
	repo := store.Repository()
	now := time.Now()

	user := &entity.User{Base: entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Email: "guest@example.com", FirstName: "Abebe", Role: entity.RoleGuest}
	listing := &entity.Listing{Base: entity.Base{ID: uuid.New()}, HostID: user.ID, Name: "Lake House",
		PricePerNight: decimal.NewFromInt(100)}
	booking := &entity.Booking{Base: entity.Base{ID: uuid.New(), CreatedAt: now}, PropertyID: listing.ID,
		UserID: user.ID, StartDate: now, EndDate: now.AddDate(0, 0, 3), TotalPrice: decimal.NewFromInt(300),
		Status: entity.BookingStatusPending}
	txn := "APfx1"
	payment := &entity.Payment{Base: entity.Base{ID: uuid.New()}, BookingID: booking.ID, Amount: decimal.NewFromInt(300),
		TxRef: "booking-abc", ChapaTransactionID: &txn, Status: entity.PaymentStatusCompleted}

	for _, err := range []error{
		repo.User.Create(ctx, user),
		repo.Listing.Create(ctx, listing),
		repo.Booking.Create(ctx, booking),
		repo.Payment.Create(ctx, payment),
	} {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return user, payment
}

func TestHandle_PaymentConfirmation(t *testing.T) {
	store := repotest.NewStore()
	user, payment := seedPayment(t, store)
	mailer := &fakeMailer{}
	h := NewHandler(store.Repository(), mailer, newMemDeduper(), "USD", zap.NewNop())

	body := []byte(`{"user_email":"` + user.Email + `","payment_id":"` + payment.ID.String() + `"}`)
	if err := h.Handle(context.Background(), RKPaymentCompleted, body); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != user.Email || msg.Subject != "Payment Confirmation" {
		t.Errorf("message = %+v", msg)
	}
	for _, want := range []string{"Hello Abebe", "300.00 USD", "booking-abc", "APfx1"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestHandle_RedeliveryIsDeduplicated(t *testing.T) {
	store := repotest.NewStore()
	user, payment := seedPayment(t, store)
	mailer := &fakeMailer{}
	h := NewHandler(store.Repository(), mailer, newMemDeduper(), "USD", zap.NewNop())

	body := []byte(`{"user_email":"` + user.Email + `","payment_id":"` + payment.ID.String() + `"}`)
	for i := 0; i < 3; i++ {
		if err := h.Handle(context.Background(), RKPaymentCompleted, body); err != nil {
			t.Fatalf("Handle #%d: %v", i, err)
		}
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
}

func TestHandle_SendFailureReleasesClaim(t *testing.T) {
	store := repotest.NewStore()
	user, payment := seedPayment(t, store)
	mailer := &fakeMailer{err: errors.New("smtp down")}
	h := NewHandler(store.Repository(), mailer, newMemDeduper(), "USD", zap.NewNop())

	body := []byte(`{"user_email":"` + user.Email + `","payment_id":"` + payment.ID.String() + `"}`)
	if err := h.Handle(context.Background(), RKPaymentCompleted, body); err == nil {
		t.Fatal("expected error from failing mailer")
	}

	mailer.err = nil
	if err := h.Handle(context.Background(), RKPaymentCompleted, body); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails after retry, want 1", len(mailer.sent))
	}
}

func TestHandle_Undeliverable(t *testing.T) {
	h := NewHandler(repotest.NewStore().Repository(), &fakeMailer{}, newMemDeduper(), "USD", zap.NewNop())

	tests := []struct {
		name string
		key  string
		body string
	}{
		{"not json", RKPaymentCompleted, `{`},
		{"missing email", RKPaymentCompleted, `{"payment_id":"x"}`},
		{"missing booking id", RKBookingCreated, `{"user_email":"a@b.c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Handle(context.Background(), tt.key, []byte(tt.body))
			if !errors.Is(err, ErrUndeliverable) {
				t.Fatalf("err = %v, want ErrUndeliverable", err)
			}
		})
	}
}

func TestHandle_UnknownPaymentIsAcked(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(repotest.NewStore().Repository(), mailer, newMemDeduper(), "USD", zap.NewNop())

	body := []byte(`{"user_email":"a@b.c","payment_id":"` + uuid.NewString() + `"}`)
	if err := h.Handle(context.Background(), RKPaymentCompleted, body); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("sent %d emails, want 0", len(mailer.sent))
	}
}
