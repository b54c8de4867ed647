package hosted

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
)

var codeKinds = map[string]error{
	"invalid_credentials": auth.ErrInvalidCredentials,
	"email_not_confirmed": auth.ErrVerificationRequired,
	"user_already_exists": auth.ErrDuplicateAccount,
	"email_exists":        auth.ErrDuplicateAccount,
}

// Older GoTrue releases only report these through the message text.
var messageKinds = []struct {
	substr string
	kind   error
}{
	{"Invalid login credentials", auth.ErrInvalidCredentials},
	{"Email not confirmed", auth.ErrVerificationRequired},
	{"already registered", auth.ErrDuplicateAccount},
}

// Classify maps a provider failure onto the auth error taxonomy. The
// returned error matches the taxonomy sentinel and still unwraps to the
// original cause. Errors that are already classified pass through; a
// *ProviderError that matches nothing is returned unchanged.
func Classify(err error) error {
	if err == nil || auth.Kind(err) != nil {
		return err
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		return auth.Unavailable("identity provider", err)
	}

	if kind, ok := codeKinds[pe.Code]; ok {
		return fmt.Errorf("%w: %w", kind, err)
	}
	for _, m := range messageKinds {
		if strings.Contains(pe.Message, m.substr) {
			return fmt.Errorf("%w: %w", m.kind, err)
		}
	}
	if pe.Status >= http.StatusInternalServerError || pe.Status == http.StatusTooManyRequests {
		return auth.Unavailable("identity provider", err)
	}
	return err
}

// isUnauthorized reports a provider rejection of the presented token.
func isUnauthorized(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Status == http.StatusUnauthorized || pe.Status == http.StatusForbidden
}
