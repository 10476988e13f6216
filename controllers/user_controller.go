package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/middleware"
	"github.com/sayfoods/sayfoods-api/services"
)

// SignInRequest represents the request body for signing in
type SignInRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the request body for changing the password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UserController serves account and session endpoints
type UserController struct {
	accounts      *services.AccountService
	secureCookies bool
}

func NewUserController(accounts *services.AccountService, cfg *config.Config) *UserController {
	return &UserController{accounts: accounts, secureCookies: cfg.IsProduction()}
}

// SignUp handles POST /api/v1/users/signup
func (uc *UserController) SignUp(c *gin.Context) {
	var req services.SignUpInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := uc.accounts.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	uc.setSessionCookie(c, result.Token, result.ExpiresAt)
	respondOK(c, http.StatusCreated, result)
}

// SignIn handles POST /api/v1/users/signin
func (uc *UserController) SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := uc.accounts.SignIn(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	uc.setSessionCookie(c, result.Token, result.ExpiresAt)
	respondOK(c, http.StatusOK, result)
}

// LogOut handles POST /api/v1/users/logout - revokes the current session
func (uc *UserController) LogOut(c *gin.Context) {
	sessionID, err := middleware.GetSessionID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "No active session")
		return
	}

	if err := uc.accounts.LogOut(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", uc.secureCookies, true)
	respondMessage(c, "Logged out")
}

// GetDetails handles GET /api/v1/users
func (uc *UserController) GetDetails(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := uc.accounts.GetDetails(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// EditDetails handles PATCH /api/v1/users
func (uc *UserController) EditDetails(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.ProfileInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.accounts.EditDetails(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// ChangePassword handles PATCH /api/v1/users/password
func (uc *UserController) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := uc.accounts.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Password updated")
}

// CheckSession handles GET /api/v1/users/session
func (uc *UserController) CheckSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"userId":  userID,
		"isAdmin": middleware.IsAdmin(c),
	})
}

func (uc *UserController) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if uc.secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", uc.secureCookies, true)
}
