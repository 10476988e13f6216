package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/config"
)

// SessionCookie carries the session token for browser clients
const SessionCookie = "SAYFOODS"

// Context keys set by EnsureValidToken
const (
	UserIDKey          = "user_id"
	SessionIDKey       = "session_id"
	IsAdminKey         = "is_admin"
	ValidatedClaimsKey = "validated_claims"
)

// CustomClaims contains the application data carried in a session token.
type CustomClaims struct {
	UserName string `json:"userName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Validate satisfies validator.CustomClaims.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// SessionValidator confirms a token's session has not been revoked or expired
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID, userID string) error
}

// AdminChecker looks up current admin rights
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// EnsureValidToken is a middleware that will check the validity of our JWT
// and that the session it names is still live. The token is read from the
// Authorization header or, failing that, the session cookie.
func EnsureValidToken(cfg *config.Config, sessions SessionValidator) gin.HandlerFunc {
	key := cfg.SessionSigningKey()

	jwtValidator, err := validator.New(
		func(ctx context.Context) (interface{}, error) {
			return key, nil
		},
		validator.HS256,
		config.TokenIssuer,
		[]string{config.TokenAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up the jwt validator")
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Debug().Err(err).Msg("Encountered error while validating JWT")

		code, message := "INVALID_TOKEN", "Failed to validate JWT."
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code, message = "UNAUTHORIZED", "Authentication required"
		}
		writeError(w, http.StatusUnauthorized, code, message)
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.CookieTokenExtractor(SessionCookie),
		)),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			claims := token.CustomClaims.(*CustomClaims)

			userID := token.RegisteredClaims.Subject
			sessionID := token.RegisteredClaims.ID
			if err := sessions.ValidateSession(r.Context(), sessionID, userID); err != nil {
				log.Debug().Err(err).Str("session_id", sessionID).Msg("Rejected session")
				writeError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired. Please sign in again")
				return
			}

			c.Set(UserIDKey, userID)
			c.Set(SessionIDKey, sessionID)
			c.Set(IsAdminKey, claims.IsAdmin)
			c.Set(ValidatedClaimsKey, token)
			c.Request = r
			passed = true
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers that are not administrators. Rights are read
// from the account so a demoted admin loses access before the token expires.
func RequireAdmin(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.(*AuthError).Code, err.Error())
			return
		}

		isAdmin, err := admins.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to check admin rights")
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check permissions")
			return
		}
		if !isAdmin {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}

		c.Set(IsAdminKey, true)
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetSessionID extracts the session ID from the Gin context
func GetSessionID(c *gin.Context) (string, error) {
	sessionID, exists := c.Get(SessionIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_SESSION", Message: "Session not found in context"}
	}
	sessionIDStr, ok := sessionID.(string)
	if !ok {
		return "", &AuthError{Code: "MISSING_SESSION", Message: "Session is not a string"}
	}
	return sessionIDStr, nil
}

// IsAdmin reports whether the request was authenticated as an administrator
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(IsAdminKey)
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(ValidatedClaimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := `{"success":false,"error":{"code":"` + code + `","message":"` + message + `"}}`
	if _, err := w.Write([]byte(body)); err != nil {
		log.Warn().Err(err).Msg("Failed to write error response")
	}
}
