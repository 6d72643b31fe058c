package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"stayhub/internal/usecase"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Listing *ListingHandler
	Booking *BookingHandler
	Payment *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Listing: NewListingHandler(service.Listing, log),
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
	}
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst. An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleServiceError maps the usecase error taxonomy onto HTTP responses.
// gatewayStatus is the code used when the payment gateway could not be reached.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string, gatewayStatus int) {
	var verr *usecase.ValidationError
	var rejected *usecase.RejectedError

	switch {
	case errors.As(err, &verr):
		log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		var fields any
		if len(verr.Fields) > 0 {
			fields = verr.Fields
		}
		utils.ResponseBadRequest(w, verr.Message, fields)

	case errors.As(err, &rejected):
		log.Warn(operation+" rejected by gateway",
			zap.String("operation", operation),
			zap.ByteString("payload", rejected.Payload))
		var payload any = rejected.Payload
		if len(rejected.Payload) == 0 || !json.Valid(rejected.Payload) {
			payload = nil
		}
		utils.ResponseBadRequest(w, rejected.Error(), payload)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, "You do not have permission to perform this action")

	case errors.Is(err, usecase.ErrGateway):
		log.Error(operation+" failed - gateway",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseJSON(w, gatewayStatus, false, "Payment gateway unavailable, try again later", nil, nil)

	default:
		log.Error(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
