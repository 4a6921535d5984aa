package auth

import (
	"context"
	"errors"

	"pixelperfect/internal/model"
)

// RequireAuthenticated resolves the session user or denies with a
// redirect to /login.
func (s *Service) RequireAuthenticated(ctx context.Context, token string) (model.User, error) {
	user, err := s.Current(ctx, token)
	if errors.Is(err, ErrNotAuthenticated) {
		return model.User{}, &AccessDeniedError{Reason: "please sign in to continue", Redirect: "/login", Err: ErrNotAuthenticated}
	}
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// RequireVerified additionally requires a verified email.
func (s *Service) RequireVerified(ctx context.Context, token string) (model.User, error) {
	user, err := s.RequireAuthenticated(ctx, token)
	if err != nil {
		return model.User{}, err
	}
	if err := CheckVerified(user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// RequireRole additionally requires role.
func (s *Service) RequireRole(ctx context.Context, token string, role model.Role) (model.User, error) {
	user, err := s.RequireAuthenticated(ctx, token)
	if err != nil {
		return model.User{}, err
	}
	if user.Role != role {
		return model.User{}, &AccessDeniedError{Reason: "you do not have access to this page", Redirect: HomeFor(user.Role), Err: ErrForbidden}
	}
	return user, nil
}

// CheckVerified denies unverified users with a redirect to /verify-email.
func CheckVerified(user model.User) error {
	if !user.IsEmailVerified {
		return &AccessDeniedError{Reason: "please verify your email before booking", Redirect: "/verify-email", Err: ErrEmailNotVerified}
	}
	return nil
}

// HomeFor returns the landing page of a role.
func HomeFor(role model.Role) string {
	home := "/"
	role.Dispatch(
		func() { home = "/admin" },
		func() { home = "/my-bookings" },
	)
	return home
}
