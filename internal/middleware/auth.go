package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonnyWalker81/healthlog/backend/internal/apierror"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/pkg/supabase"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "user_id"

var errMissingToken = errors.New("missing bearer token")

// Identity is the caller resolved from an access token
type Identity struct {
	UserID string
	Email  string
}

// TokenVerifier resolves an access token to an identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type supabaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with the project's JWT secret
// without a round trip to the identity provider
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a local verifier
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates token
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	var claims supabaseClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// SupabaseVerifier resolves tokens through the Supabase auth endpoint
type SupabaseVerifier struct {
	client *supabase.Client
}

// NewSupabaseVerifier creates a remote verifier
func NewSupabaseVerifier(client *supabase.Client) *SupabaseVerifier {
	return &SupabaseVerifier{client: client}
}

// Verify asks Supabase who owns token
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	user, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

// Auth middleware requires a valid bearer token
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, verifier) {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

// OptionalAuth middleware authenticates the caller when a token is present
// and lets anonymous requests through. A token that fails verification is
// still rejected.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if !authenticate(c, verifier) {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func authenticate(c *gin.Context, verifier TokenVerifier) bool {
	log := logger.Ctx(c.Request.Context())

	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		log.Debug("authentication failed", logger.Err(err))
		return false
	}

	identity, err := verifier.Verify(c.Request.Context(), token)
	if err != nil {
		log.Warn("authentication failed: token verification error",
			logger.Err(err),
		)
		return false
	}

	c.Set(UserIDKey, identity.UserID)
	c.Set("user_email", identity.Email)

	// Add user ID to request context for logging
	ctx := logger.WithUserID(c.Request.Context(), identity.UserID)
	c.Request = c.Request.WithContext(ctx)

	log.Debug("authentication successful",
		logger.String("user_id", identity.UserID),
	)
	return true
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	// Extract token from "Bearer <token>"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}

func abortUnauthorized(c *gin.Context) {
	requestID := apierror.GetRequestID(c)
	apierror.AbortWithProblem(c, apierror.NewUnauthorizedError(requestID))
}
