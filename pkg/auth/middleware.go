// Package auth verifies API keys on the HTTP boundary. Keys are stored as
// SHA-256 hashes; issuance happens out of band.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// HeaderAPIKey carries the caller's API key.
const HeaderAPIKey = "X-API-Key"

// Verifier checks API keys against the stored hashes plus an optional
// bootstrap key from configuration.
type Verifier struct {
	keys             repositories.APIKeyRepository
	bootstrapKeyHash string
	logger           *zap.Logger
}

// NewVerifier creates a key verifier. bootstrapKey may be empty when all keys
// are provisioned in the database.
func NewVerifier(keys repositories.APIKeyRepository, bootstrapKey string, logger *zap.Logger) *Verifier {
	v := &Verifier{
		keys:   keys,
		logger: logger.Named("auth"),
	}
	if bootstrapKey != "" {
		v.bootstrapKeyHash = HashKey(bootstrapKey)
	}
	return v
}

// HashKey returns the hex SHA-256 digest used to store and look up keys.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Middleware rejects requests without a valid X-API-Key header.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(HeaderAPIKey)
		if key == "" {
			unauthorized(w, "missing API key")
			return
		}

		keyHash := HashKey(key)

		if v.bootstrapKeyHash != "" &&
			subtle.ConstantTimeCompare([]byte(keyHash), []byte(v.bootstrapKeyHash)) == 1 {
			next.ServeHTTP(w, r)
			return
		}

		stored, err := v.keys.GetActiveByHash(r.Context(), keyHash)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				v.logger.Error("API key lookup failed", zap.Error(err))
			}
			unauthorized(w, "invalid API key")
			return
		}

		if subtle.ConstantTimeCompare([]byte(keyHash), []byte(stored.KeyHash)) != 1 {
			unauthorized(w, "invalid API key")
			return
		}

		// Best effort; a failed touch never blocks the request.
		if err := v.keys.TouchLastUsed(r.Context(), stored.ID, time.Now().UTC()); err != nil {
			v.logger.Warn("Failed to record API key use", zap.Error(err))
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": detail}) //nolint:errcheck
}
