package usecase

import (
	"context"
	"strings"
	"time"

	"stayhub/internal/data/repository"
	"stayhub/internal/dto/request"
	"stayhub/internal/dto/response"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, caller Caller) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, caller Caller, req *request.UpdateProfileRequest) (*response.UserResponse, error)
	DeleteAccount(ctx context.Context, caller Caller) error
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, caller Caller) (*response.UserResponse, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}

	user, err := us.userRepo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, internal("get profile", err)
	}
	if user == nil {
		return nil, notFound("user")
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateProfile(ctx context.Context, caller Caller, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidFields(errs)
	}

	user, err := us.userRepo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, internal("get profile", err)
	}
	if user == nil {
		return nil, notFound("user")
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, internal("hash password", err)
		}
		user.PasswordHash = hashed
	}
	user.UpdatedAt = time.Now()

	if err := us.userRepo.Update(ctx, user); err != nil {
		return nil, internal("update profile", err)
	}

	us.log.Info("Profile updated", zap.String("user_id", user.ID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

// DeleteAccount removes the user; listings, bookings and payments cascade.
// It is refused while the cascade would drop money records.
func (us *userService) DeleteAccount(ctx context.Context, caller Caller) error {
	if !caller.Authenticated {
		return ErrUnauthorized
	}

	deleted, err := us.userRepo.DeleteIfUnpaid(ctx, caller.ID)
	if err != nil {
		return internal("delete account", err)
	}
	if !deleted {
		user, err := us.userRepo.FindByID(ctx, caller.ID)
		if err != nil {
			return internal("find user", err)
		}
		if user == nil {
			return notFound("user")
		}
		return invalid("account has bookings with pending or completed payments and cannot be deleted")
	}

	us.log.Info("Account deleted", zap.String("user_id", caller.ID.String()))
	return nil
}
