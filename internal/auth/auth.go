package auth

import (
	"errors"
	"time"

	"go-event-ticketing/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Capability is a named permission. Handlers declare the capability an
// operation needs; the role-to-capability mapping lives here and nowhere
// else, so there are no ad-hoc role string checks scattered around.
type Capability string

const (
	CapBookTickets  Capability = "book-tickets"
	CapManageEvents Capability = "manage-events"
	CapViewAllUsers Capability = "view-all-users"
)

var roleCapabilities = map[model.Role][]Capability{
	model.RoleAttendee:  {CapBookTickets},
	model.RoleOrganizer: {CapManageEvents},
	model.RoleAdmin:     {CapBookTickets, CapManageEvents, CapViewAllUsers},
}

// HasCapability reports whether the role grants the capability.
func HasCapability(role model.Role, cap Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID int        `json:"user_id"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *TokenManager) Issue(user *model.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
