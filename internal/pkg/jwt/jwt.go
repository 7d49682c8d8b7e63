package jwt

import (
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenLifetime = 5 * time.Minute
)

type Service interface {
	GenerateAccessToken(u user.User) (token string, expiresAt int64, err error)
	GenerateSSEToken(c Claims) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(u user.User) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		ClaimUserID:      u.ID,
		ClaimEmail:       u.Email,
		ClaimName:        u.Name,
		ClaimWorkspaceID: u.WorkspaceID,
		ClaimEmployeeID:  returnValueOrNil(u.EmployeeID),
		ClaimRole:        string(u.Role),
		ClaimType:        TokenTypeAccess,
		"exp":            expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections.
// EventSource cannot send headers, so the token travels in the query string.
func (j *JWTService) GenerateSSEToken(c Claims) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		ClaimUserID:      c.UserID,
		ClaimWorkspaceID: c.WorkspaceID,
		ClaimRole:        string(c.Role),
		ClaimType:        TokenTypeSSE,
		"exp":            expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenLifetime.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns the subscriber it was issued to
func (j *JWTService) ValidateSSEToken(tokenString string) (Claims, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return Claims{}, err
	}

	tokenType, ok := token.Get(ClaimType)
	if !ok || tokenType != TokenTypeSSE {
		return Claims{}, jwt.ErrInvalidJWT()
	}

	claim := func(name string) string {
		v, _ := token.Get(name)
		str, _ := v.(string)
		return str
	}

	c := Claims{
		UserID:      claim(ClaimUserID),
		WorkspaceID: claim(ClaimWorkspaceID),
		Role:        user.Role(claim(ClaimRole)),
	}
	if c.UserID == "" || c.WorkspaceID == "" {
		return Claims{}, jwt.ErrInvalidJWT()
	}

	return c, nil
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
