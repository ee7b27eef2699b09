// Package auth resolves inbound credentials into a single principal.
// Two providers exist: bearer API keys and signed session tokens. The
// middleware tries each once per request; handlers only ever see
// *model.User or nil.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"shortly-go/internal/apperrors"
	"shortly-go/internal/model"
	"shortly-go/internal/plan"
)

// Provider authenticates one kind of credential. A (nil, nil) return
// means the credential is not of this provider's kind and the next
// provider should be tried.
type Provider interface {
	Authenticate(credential string) (*model.User, error)
}

var apiKeyPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// APIKeyProvider matches 64-hex bearer keys against users.api_key.
// Using a key requires a tier with API access.
type APIKeyProvider struct {
	db *gorm.DB
}

func NewAPIKeyProvider(db *gorm.DB) *APIKeyProvider {
	return &APIKeyProvider{db: db}
}

func (p *APIKeyProvider) Authenticate(credential string) (*model.User, error) {
	if !apiKeyPattern.MatchString(credential) {
		return nil, nil
	}

	var user model.User
	err := p.db.Where("api_key = ?", credential).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.UnauthenticatedError("error.invalid_api_key")
		}
		return nil, apperrors.SystemErrorDefault()
	}

	if !plan.HasAPIAccess(plan.ConfigFor(&user)) {
		return nil, apperrors.FeatureNotAllowedError("error.api_access_required")
	}
	return &user, nil
}

// GenerateAPIKey mints a fresh 64-hex key and stores it on the user.
func GenerateAPIKey(db *gorm.DB, user *model.User) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	key := hex.EncodeToString(raw)
	if err := db.Model(user).Update("api_key", key).Error; err != nil {
		return "", err
	}
	user.APIKey = &key
	return key, nil
}
