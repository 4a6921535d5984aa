package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrForbidden          = errors.New("insufficient role")
)

// AccessDeniedError is returned by the gates. Redirect names the page the
// caller should be sent to.
type AccessDeniedError struct {
	Reason   string
	Redirect string
	Err      error
}

func (e *AccessDeniedError) Error() string {
	return e.Reason
}

func (e *AccessDeniedError) Unwrap() error {
	return e.Err
}

// IsAccessDenied checks if error is access denied.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}

// RedirectFor returns the redirect target carried by err, if any.
func RedirectFor(err error) string {
	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		return denied.Redirect
	}
	return ""
}
