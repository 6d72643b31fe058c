// internal/wire/wire.go
package wire

import (
	"net/http"
	"time"

	"stayhub/internal/adaptor"
	"stayhub/internal/data/repository"
	"stayhub/internal/gateway"
	"stayhub/internal/notification"
	"stayhub/internal/usecase"
	"stayhub/pkg/middleware"
	"stayhub/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired router
type App struct {
	Router *chi.Mux
}

// Wiring builds services, handlers and routes from the shared dependencies
func Wiring(
	repo *repository.Repository,
	gw gateway.Gateway,
	dispatcher notification.Dispatcher,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	tokens := utils.NewTokenIssuer(config.JWT.Secret, time.Duration(config.JWT.ExpiryHours)*time.Hour)

	service := usecase.NewService(repo, gw, dispatcher, tokens, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, tokens, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	tokens *utils.TokenIssuer,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Trace(config.Tracing.ServiceName))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	auth := middleware.Authenticate(tokens, repo.User, logger)
	optional := middleware.OptionalAuth(tokens, repo.User, logger)

	wireAuth(r, handler.Auth)
	wireUser(r, handler.User, auth)
	wireListing(r, handler.Listing, auth)
	wireBooking(r, handler.Booking, handler.Payment, auth)
	wirePayment(r, handler.Payment, auth, optional)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
