package usecase

import (
	"errors"
	"testing"

	"stayhub/internal/data/entity"

	"github.com/google/uuid"
)

func TestAuthorizeListing(t *testing.T) {
	host := Caller{ID: uuid.New(), Role: entity.RoleHost, Authenticated: true}
	other := Caller{ID: uuid.New(), Role: entity.RoleAdmin, Authenticated: true}
	listing := &entity.Listing{HostID: host.ID}

	tests := []struct {
		name   string
		caller Caller
		action Action
		want   error
	}{
		{"anyone reads", Caller{}, ActionRead, nil},
		{"host writes", host, ActionWrite, nil},
		{"host deletes", host, ActionDelete, nil},
		{"admin role grants nothing", other, ActionWrite, ErrForbidden},
		{"anonymous write", Caller{}, ActionWrite, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeListing(tt.caller, listing, tt.action)
			if tt.want == nil && err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthorizeBookingAndPayment(t *testing.T) {
	owner := Caller{ID: uuid.New(), Authenticated: true}
	other := Caller{ID: uuid.New(), Role: entity.RoleAdmin, Authenticated: true}
	booking := &entity.Booking{UserID: owner.ID}

	for _, action := range []Action{ActionRead, ActionWrite, ActionDelete, ActionPay} {
		if err := AuthorizeBooking(owner, booking, action); err != nil {
			t.Errorf("owner %s: %v", action, err)
		}
		if err := AuthorizeBooking(other, booking, action); !errors.Is(err, ErrNotFound) {
			t.Errorf("other %s err = %v, want ErrNotFound", action, err)
		}
	}

	if err := AuthorizePayment(owner, booking, ActionRead); err != nil {
		t.Errorf("owner payment read: %v", err)
	}
	if err := AuthorizePayment(other, booking, ActionRead); !errors.Is(err, ErrNotFound) {
		t.Errorf("other payment read err = %v, want ErrNotFound", err)
	}
	if err := AuthorizePayment(owner, nil, ActionRead); !errors.Is(err, ErrNotFound) {
		t.Errorf("orphan payment err = %v, want ErrNotFound", err)
	}
	if err := AuthorizeBooking(Caller{}, booking, ActionRead); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous err = %v, want ErrUnauthorized", err)
	}
}
