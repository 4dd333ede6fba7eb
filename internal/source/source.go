package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/casewatch/internal/model"
)

// AuthError indicates that authentication has failed or expired for a source.
// It is returned by source clients when a 401 response cannot be recovered
// by renewing the token.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies the kind of external source integration.
type SourceType string

const (
	SourceTypeHRAPI SourceType = "hrapi"
)

// Collections is the read side of the HR backend that derivation cycles
// consume. Both calls return normalized records; records without an ID are
// already dropped.
type Collections interface {
	// ListAlerts returns every alert visible to the current user.
	ListAlerts(ctx context.Context) ([]model.Alert, error)

	// ListCases returns every case visible to the current user.
	ListCases(ctx context.Context) ([]model.Case, error)
}
