package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
)

// TokenKind separates access tokens from refresh tokens so one cannot be
// presented as the other.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	Kind      TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Identity returns the identity the claims were issued for.
func (c *Claims) Identity() (models.Identity, error) {
	userID, err := id.ParseUserID(c.UserID)
	if err != nil {
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token subject")
	}
	return models.Identity{UserID: userID, Email: c.Email}, nil
}

// TokenService signs and validates HS256 tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
}

func NewTokenService(signingKey, issuer string) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer}
}

func (s *TokenService) Generate(ident models.Identity, sessionID id.SessionID, kind TokenKind, now time.Time, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    ident.UserID.String(),
		Email:     ident.Email,
		SessionID: sessionID.String(),
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses token and checks its signature, expiry at now, issuer and
// kind. All failures are CodeUnauthorized.
func (s *TokenService) Validate(tokenString string, kind TokenKind, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Kind != kind {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong token kind")
	}
	return claims, nil
}
