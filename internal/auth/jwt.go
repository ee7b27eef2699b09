package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"shortly-go/internal/apperrors"
	"shortly-go/internal/model"
)

const tokenExpiration = 24 * time.Hour

type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTProvider matches HS256 session tokens issued by GenerateToken.
type JWTProvider struct {
	db     *gorm.DB
	secret []byte
}

func NewJWTProvider(db *gorm.DB, secret string) *JWTProvider {
	return &JWTProvider{db: db, secret: []byte(secret)}
}

func (p *JWTProvider) Authenticate(credential string) (*model.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		// Not a token this provider can vouch for.
		return nil, nil
	}

	var user model.User
	if err := p.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.UnauthenticatedError("Invalid session token")
		}
		return nil, apperrors.SystemErrorDefault()
	}
	return &user, nil
}

// GenerateToken issues a session token for a user.
func (p *JWTProvider) GenerateToken(user *model.User) (string, error) {
	expirationTime := time.Now().Add(tokenExpiration)
	claims := &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}
