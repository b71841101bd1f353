package services

import "errors"

var (
	ErrBadCreds  = errors.New("invalid email or password")
	ErrCartEmpty = errors.New("cart is empty")
	ErrNotFound  = errors.New("not found")
)

// ErrValidation carries a user-facing message; handlers surface it as 400.
type ErrValidation struct{ Msg string }

func (e ErrValidation) Error() string { return e.Msg }

// IsValidation reports whether err should map to a 400 response.
func IsValidation(err error) (string, bool) {
	var v ErrValidation
	if errors.As(err, &v) {
		return v.Msg, true
	}
	if errors.Is(err, ErrCartEmpty) {
		return "Cart is empty", true
	}
	return "", false
}
