package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository"
	"stayhub/internal/data/repository/repotest"
	"stayhub/internal/gateway"
	"stayhub/internal/notification"
	"stayhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeGateway struct {
	mu          sync.Mutex
	initResult  *gateway.InitializeResult
	initErr     error
	initHook    func(req gateway.InitializeRequest)
	verifyRes   *gateway.VerifyResult
	verifyErr   error
	initCalls   int32
	verifyCalls int32
	lastInit    gateway.InitializeRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		initResult: &gateway.InitializeResult{
			Success:     true,
			CheckoutURL: "https://checkout.chapa.co/test",
			Payload:     json.RawMessage(`{"status":"success"}`),
		},
		verifyRes: &gateway.VerifyResult{
			Success:   true,
			Status:    "success",
			Reference: "APfx1",
			Payload:   json.RawMessage(`{"status":"success","data":{"status":"success"}}`),
		},
	}
}

func (g *fakeGateway) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	atomic.AddInt32(&g.initCalls, 1)
	g.mu.Lock()
	g.lastInit = req
	hook := g.initHook
	g.mu.Unlock()
	if hook != nil {
		hook(req)
	}
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.initResult, nil
}

func (g *fakeGateway) Verify(_ context.Context, _ string) (*gateway.VerifyResult, error) {
	atomic.AddInt32(&g.verifyCalls, 1)
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	res := *g.verifyRes
	return &res, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (d *fakeDispatcher) Enqueue(_ context.Context, event notification.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *fakeDispatcher) count(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.Key == key {
			n++
		}
	}
	return n
}

func date(daysFromToday int) string {
	return time.Now().UTC().AddDate(0, 0, daysFromToday).Format(utils.DateLayout)
}

func callerFor(user *entity.User) Caller {
	return Caller{ID: user.ID, Role: user.Role, Email: user.Email, Authenticated: true}
}

func seedUser(t *testing.T, store *repotest.Store, email string) *entity.User {
	t.Helper()
	now := time.Now()
	user := &entity.User{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Role:      entity.RoleGuest,
	}
	if err := store.Repository().User.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedListing(t *testing.T, store *repotest.Store, host *entity.User, name string, price int64) *entity.Listing {
	t.Helper()
	now := time.Now()
	listing := &entity.Listing{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		HostID:        host.ID,
		Name:          name,
		Description:   name + " description",
		Location:      "Addis Ababa",
		PricePerNight: decimal.NewFromInt(price),
	}
	if err := store.Repository().Listing.Create(context.Background(), listing); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return listing
}

// seedBooking stores a pending 3-night booking for guest at listing.
func seedBooking(t *testing.T, store *repotest.Store, guest *entity.User, listing *entity.Listing) *entity.Booking {
	t.Helper()
	now := time.Now()
	start := utils.TruncateDate(now.AddDate(0, 0, 1))
	end := start.AddDate(0, 0, 3)
	booking := &entity.Booking{
		Base:       entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PropertyID: listing.ID,
		UserID:     guest.ID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: entity.PriceFor(start, end, listing.PricePerNight),
		Status:     entity.BookingStatusPending,
	}
	if err := store.Repository().Booking.Create(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

func bookingFilterFor(user *entity.User) repository.BookingFilter {
	return repository.BookingFilter{UserID: user.ID}
}

// seedPayment records a payment for booking and moves it to status.
func seedPayment(t *testing.T, store *repotest.Store, booking *entity.Booking, status entity.PaymentStatus) *entity.Payment {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	payment := &entity.Payment{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingID:   booking.ID,
		Amount:      booking.TotalPrice,
		TxRef:       "booking-" + uuid.NewString(),
		CheckoutURL: "https://checkout.chapa.co/test",
		Status:      entity.PaymentStatusPending,
	}
	if err := store.Repository().Payment.Create(ctx, payment); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	if status != entity.PaymentStatusPending {
		if _, err := store.Repository().Payment.TransitionFromPending(ctx, payment.ID, status, nil); err != nil {
			t.Fatalf("transition payment: %v", err)
		}
		payment.Status = status
	}
	return payment
}
