package adaptor

import (
	"net/http"

	"stayhub/internal/dto/request"
	"stayhub/internal/usecase"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// GetProfile handles GET /api/users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), usecase.CallerFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.log, err, "get profile", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", profile)
}

// UpdateProfile handles PATCH /api/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), usecase.CallerFromContext(r.Context()), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update profile", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "Profile updated", profile)
}

// DeleteAccount handles DELETE /api/users/me
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAccount(r.Context(), usecase.CallerFromContext(r.Context())); err != nil {
		handleServiceError(w, h.log, err, "delete account", http.StatusInternalServerError)
		return
	}

	utils.ResponseNoContent(w)
}
