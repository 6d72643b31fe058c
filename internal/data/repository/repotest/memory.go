// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository"

	"github.com/google/uuid"
)

// ErrInjected is returned by stores whose Fail flag is set.
var ErrInjected = errors.New("injected failure")

// Store holds every table behind one mutex and mirrors the constraints the
// Postgres schema enforces.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]entity.User
	listings map[uuid.UUID]entity.Listing
	bookings map[uuid.UUID]entity.Booking
	payments map[uuid.UUID]entity.Payment

	// FailPaymentCreate makes Payment.Create return ErrInjected.
	FailPaymentCreate bool
}

func NewStore() *Store {
	return &Store{
		users:    map[uuid.UUID]entity.User{},
		listings: map[uuid.UUID]entity.Listing{},
		bookings: map[uuid.UUID]entity.Booking{},
		payments: map[uuid.UUID]entity.Payment{},
	}
}

// Repository wires the store into the aggregate used by services.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:    &userStore{s},
		Listing: &listingStore{s},
		Booking: &bookingStore{s},
		Payment: &paymentStore{s},
	}
}

// Payments returns a snapshot of every payment row.
func (s *Store) Payments() []entity.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	return out
}

// ---- users ----

type userStore struct{ s *Store }

func (u *userStore) Create(_ context.Context, user *entity.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrEmailTaken
		}
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u *userStore) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user, ok := u.s.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (u *userStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (u *userStore) Update(_ context.Context, user *entity.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	existing, ok := u.s.users[user.ID]
	if !ok {
		return nil
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Phone = user.Phone
	existing.PasswordHash = user.PasswordHash
	existing.UpdatedAt = user.UpdatedAt
	u.s.users[user.ID] = existing
	return nil
}

func (u *userStore) DeleteIfUnpaid(_ context.Context, id uuid.UUID) (bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[id]; !ok {
		return false, nil
	}
	for _, p := range u.s.payments {
		b, ok := u.s.bookings[p.BookingID]
		if !ok {
			continue
		}
		if b.UserID == id && p.Status == entity.PaymentStatusCompleted {
			return false, nil
		}
		l, ok := u.s.listings[b.PropertyID]
		if ok && l.HostID == id && (p.Status == entity.PaymentStatusPending || p.Status == entity.PaymentStatusCompleted) {
			return false, nil
		}
	}
	delete(u.s.users, id)
	for lid, l := range u.s.listings {
		if l.HostID == id {
			u.s.deleteListingLocked(lid)
		}
	}
	for bid, b := range u.s.bookings {
		if b.UserID == id {
			u.s.deleteBookingLocked(bid)
		}
	}
	return true, nil
}

// ---- listings ----

type listingStore struct{ s *Store }

func (l *listingStore) Create(_ context.Context, listing *entity.Listing) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.listings[listing.ID] = *listing
	return nil
}

func (l *listingStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Listing, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if listing, ok := l.s.listings[id]; ok {
		return &listing, nil
	}
	return nil, nil
}

func (l *listingStore) match(filter repository.ListingFilter) []*entity.Listing {
	out := []*entity.Listing{}
	for _, listing := range l.s.listings {
		item := listing
		if filter.Name != "" && !strings.EqualFold(item.Name, filter.Name) {
			continue
		}
		if filter.Location != "" && !strings.EqualFold(item.Location, filter.Location) {
			continue
		}
		if filter.MinPrice != nil && item.PricePerNight.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && item.PricePerNight.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if filter.HostID != nil && item.HostID != *filter.HostID {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(item.Name), q) &&
				!strings.Contains(strings.ToLower(item.Description), q) &&
				!strings.Contains(strings.ToLower(item.Location), q) {
				continue
			}
		}
		out = append(out, &item)
	}

	desc := strings.HasPrefix(filter.Ordering, "-")
	key := strings.TrimPrefix(filter.Ordering, "-")
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less bool
		switch key {
		case "price_per_night":
			less = a.PricePerNight.LessThan(b.PricePerNight)
		case "location":
			less = a.Location < b.Location
		case "created_at":
			less = a.CreatedAt.Before(b.CreatedAt)
		default:
			less = a.Name < b.Name
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

func (l *listingStore) FindAll(_ context.Context, filter repository.ListingFilter, offset, limit int) ([]*entity.Listing, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return page(l.match(filter), offset, limit), nil
}

func (l *listingStore) CountAll(_ context.Context, filter repository.ListingFilter) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return int64(len(l.match(filter))), nil
}

func (l *listingStore) Update(_ context.Context, listing *entity.Listing) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	existing, ok := l.s.listings[listing.ID]
	if !ok {
		return nil
	}
	listing.HostID = existing.HostID
	l.s.listings[listing.ID] = *listing
	return nil
}

func (l *listingStore) DeleteIfUnpaid(_ context.Context, id uuid.UUID) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.listings[id]; !ok {
		return false, nil
	}
	for _, p := range l.s.payments {
		if p.Status != entity.PaymentStatusPending && p.Status != entity.PaymentStatusCompleted {
			continue
		}
		if b, ok := l.s.bookings[p.BookingID]; ok && b.PropertyID == id {
			return false, nil
		}
	}
	l.s.deleteListingLocked(id)
	return true, nil
}

func (s *Store) deleteListingLocked(id uuid.UUID) {
	delete(s.listings, id)
	for bid, b := range s.bookings {
		if b.PropertyID == id {
			s.deleteBookingLocked(bid)
		}
	}
}

// ---- bookings ----

type bookingStore struct{ s *Store }

func (b *bookingStore) Create(_ context.Context, booking *entity.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if booking.EndDate.Before(booking.StartDate) {
		return errors.New("violates bookings_date_order")
	}
	b.s.bookings[booking.ID] = *booking
	return nil
}

func (b *bookingStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if booking, ok := b.s.bookings[id]; ok {
		return &booking, nil
	}
	return nil, nil
}

func (b *bookingStore) match(filter repository.BookingFilter) []*entity.Booking {
	out := []*entity.Booking{}
	for _, booking := range b.s.bookings {
		item := booking
		if item.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.PropertyID != nil && item.PropertyID != *filter.PropertyID {
			continue
		}
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (b *bookingStore) FindByUserID(_ context.Context, filter repository.BookingFilter, offset, limit int) ([]*entity.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return page(b.match(filter), offset, limit), nil
}

func (b *bookingStore) CountByUserID(_ context.Context, filter repository.BookingFilter) (int64, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return int64(len(b.match(filter))), nil
}

func (b *bookingStore) Update(_ context.Context, booking *entity.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	existing, ok := b.s.bookings[booking.ID]
	if !ok {
		return nil
	}
	if booking.EndDate.Before(booking.StartDate) {
		return errors.New("violates bookings_date_order")
	}
	booking.UserID = existing.UserID
	b.s.bookings[booking.ID] = *booking
	return nil
}

func (b *bookingStore) DeleteIfUnpaid(_ context.Context, id uuid.UUID) (bool, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.bookings[id]; !ok {
		return false, nil
	}
	for _, p := range b.s.payments {
		if p.BookingID == id && p.Status == entity.PaymentStatusCompleted {
			return false, nil
		}
	}
	b.s.deleteBookingLocked(id)
	return true, nil
}

func (s *Store) deleteBookingLocked(id uuid.UUID) {
	delete(s.bookings, id)
	for pid, p := range s.payments {
		if p.BookingID == id {
			delete(s.payments, pid)
		}
	}
}

// ---- payments ----

type paymentStore struct{ s *Store }

func (p *paymentStore) Create(_ context.Context, payment *entity.Payment) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.s.FailPaymentCreate {
		return ErrInjected
	}
	for _, existing := range p.s.payments {
		if existing.TxRef == payment.TxRef {
			return errors.New("violates payments_tx_ref_key")
		}
		if payment.Status == entity.PaymentStatusPending &&
			existing.BookingID == payment.BookingID && existing.Status == entity.PaymentStatusPending {
			return repository.ErrPendingExists
		}
	}
	p.s.payments[payment.ID] = *payment
	return nil
}

func (p *paymentStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if payment, ok := p.s.payments[id]; ok {
		return &payment, nil
	}
	return nil, nil
}

func (p *paymentStore) FindByTxRef(_ context.Context, txRef string) (*entity.Payment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	for _, payment := range p.s.payments {
		if payment.TxRef == txRef {
			found := payment
			return &found, nil
		}
	}
	return nil, nil
}

func (p *paymentStore) FindPendingByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	for _, payment := range p.s.payments {
		if payment.BookingID == bookingID && payment.Status == entity.PaymentStatusPending {
			found := payment
			return &found, nil
		}
	}
	return nil, nil
}

func (p *paymentStore) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	out := []*entity.Payment{}
	for _, payment := range p.s.payments {
		if payment.BookingID == bookingID {
			found := payment
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p *paymentStore) HasCompletedByBookingID(_ context.Context, bookingID uuid.UUID) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	for _, payment := range p.s.payments {
		if payment.BookingID == bookingID && payment.Status == entity.PaymentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (p *paymentStore) SetGatewayTransactionID(_ context.Context, id uuid.UUID, transactionID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	payment, ok := p.s.payments[id]
	if ok && payment.Status == entity.PaymentStatusPending {
		payment.ChapaTransactionID = &transactionID
		p.s.payments[id] = payment
	}
	return nil
}

func (p *paymentStore) TransitionFromPending(_ context.Context, id uuid.UUID, status entity.PaymentStatus, transactionID *string) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	payment, ok := p.s.payments[id]
	if !ok || payment.Status != entity.PaymentStatusPending {
		return false, nil
	}
	payment.Status = status
	if transactionID != nil {
		txn := *transactionID
		payment.ChapaTransactionID = &txn
	}
	p.s.payments[id] = payment
	return true, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
