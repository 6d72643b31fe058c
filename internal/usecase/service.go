package usecase

import (
	"stayhub/internal/data/repository"
	"stayhub/internal/gateway"
	"stayhub/internal/notification"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Listing ListingService
	Booking BookingService
	Payment PaymentService
}

func NewService(
	repo *repository.Repository,
	gw gateway.Gateway,
	dispatcher notification.Dispatcher,
	tokens *utils.TokenIssuer,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:    NewAuthService(repo, tokens, log),
		User:    NewUserService(repo.User, log),
		Listing: NewListingService(repo, log),
		Booking: NewBookingService(repo, dispatcher, log),
		Payment: NewPaymentService(repo, gw, dispatcher, PaymentOptions{
			Currency:        config.Gateway.Currency,
			CallbackBaseURL: config.App.PublicBaseURL,
			ReturnURL:       config.Gateway.ReturnURL,
		}, log),
	}
}
