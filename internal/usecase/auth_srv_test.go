package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository/repotest"
	"stayhub/internal/dto/request"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

func TestRegisterAndLogin(t *testing.T) {
	store := repotest.NewStore()
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	svc := NewAuthService(store.Repository(), tokens, zap.NewNop())
	ctx := context.Background()

	reg, err := svc.Register(ctx, &request.RegisterRequest{
		Email:     "Guest@Example.com",
		Password:  "s3cretpass",
		FirstName: "Abebe",
		LastName:  "Kebede",
		Role:      "host",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Email != "guest@example.com" || reg.User.Role != "host" {
		t.Errorf("user = %+v", reg.User)
	}

	claims, err := tokens.Parse(reg.AccessToken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != reg.User.ID || claims.Role != "host" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Register(ctx, &request.RegisterRequest{
		Email: "guest@example.com", Password: "anotherpass", FirstName: "A", LastName: "B", Role: "guest",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate register err = %v, want ErrValidation", err)
	}

	login, err := svc.Login(ctx, &request.LoginRequest{Email: "guest@example.com", Password: "s3cretpass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != reg.User.ID || login.AccessToken == "" {
		t.Errorf("login = %+v", login)
	}

	if _, err := svc.Login(ctx, &request.LoginRequest{Email: "guest@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("bad password err = %v, want ErrUnauthorized", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAuthService(repotest.NewStore().Repository(), utils.NewTokenIssuer("k", time.Hour), zap.NewNop())

	_, err := svc.Register(context.Background(), &request.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Role:     "superuser",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, field := range []string{"email", "password", "first_name", "last_name", "role"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing error for %s in %v", field, verr.Fields)
		}
	}
}

func TestProfile(t *testing.T) {
	store := repotest.NewStore()
	user := seedUser(t, store, "guest@example.com")
	svc := NewUserService(store.Repository().User, zap.NewNop())
	ctx := context.Background()

	first := "Almaz"
	resp, err := svc.UpdateProfile(ctx, callerFor(user), &request.UpdateProfileRequest{FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if resp.FirstName != "Almaz" || resp.Email != user.Email || resp.Role != user.Role {
		t.Errorf("profile = %+v", resp)
	}

	if _, err := svc.GetProfile(ctx, Caller{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous err = %v, want ErrUnauthorized", err)
	}

	if err := svc.DeleteAccount(ctx, callerFor(user)); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := svc.GetProfile(ctx, callerFor(user)); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteAccount_GuardsPayments(t *testing.T) {
	tests := []struct {
		name    string
		owner   string
		status  entity.PaymentStatus
		refused bool
	}{
		{"guest with completed payment", "guest", entity.PaymentStatusCompleted, true},
		{"guest with pending payment", "guest", entity.PaymentStatusPending, false},
		{"host with pending payment on listing", "host", entity.PaymentStatusPending, true},
		{"host with completed payment on listing", "host", entity.PaymentStatusCompleted, true},
		{"host with failed payment on listing", "host", entity.PaymentStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repotest.NewStore()
			host := seedUser(t, store, "host@example.com")
			guest := seedUser(t, store, "guest@example.com")
			listing := seedListing(t, store, host, "Lake House", 100)
			seedPayment(t, store, seedBooking(t, store, guest, listing), tt.status)
			svc := NewUserService(store.Repository().User, zap.NewNop())
			ctx := context.Background()

			target := guest
			if tt.owner == "host" {
				target = host
			}

			err := svc.DeleteAccount(ctx, callerFor(target))
			if tt.refused {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				if _, err := svc.GetProfile(ctx, callerFor(target)); err != nil {
					t.Errorf("profile after refusal: %v", err)
				}
				if len(store.Payments()) != 1 {
					t.Errorf("payments = %d, want 1", len(store.Payments()))
				}
				return
			}

			if err != nil {
				t.Fatalf("DeleteAccount: %v", err)
			}
			if _, err := svc.GetProfile(ctx, callerFor(target)); !errors.Is(err, ErrNotFound) {
				t.Errorf("after delete err = %v, want ErrNotFound", err)
			}
		})
	}
}
