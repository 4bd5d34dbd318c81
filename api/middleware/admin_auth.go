package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/angelmondragon/settlement-archiver/api/responses"
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
)

// SecretComparer reports whether given matches expected. Implementations must
// not leak the position of the first differing byte through timing.
type SecretComparer func(given, expected []byte) bool

func ConstantTimeEqual(given, expected []byte) bool {
	return subtle.ConstantTimeCompare(given, expected) == 1
}

// AdminBasicAuth guards operator endpoints with HTTP Basic credentials. Any
// username is accepted; only the password is checked against secret.
func AdminBasicAuth(secret string, compare SecretComparer, logg *logger.Logger) func(http.Handler) http.Handler {
	if compare == nil {
		compare = ConstantTimeEqual
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, pass, ok := r.BasicAuth()
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if !compare([]byte(pass), []byte(secret)) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
