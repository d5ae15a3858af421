package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/middleware"
	"dompet/internal/models"
	"dompet/internal/oauth"
	"dompet/internal/services"
)

const oauthStateCookie = "oauth_state"

// AuthHandler handles registration, login, token refresh, email verification,
// password reset, and Google OAuth.
type AuthHandler struct {
	userService services.UserServicer
	google      *oauth.GoogleClient
}

// NewAuthHandler creates a new AuthHandler. google may be nil when OAuth is
// not configured.
func NewAuthHandler(userService services.UserServicer, google *oauth.GoogleClient) *AuthHandler {
	return &AuthHandler{userService: userService, google: google}
}

// RegisterRequest represents the request payload for registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30,alphanum"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest represents the request payload for login. Input accepts either
// a username or an email address.
type LoginRequest struct {
	Input    string `json:"input" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request payload for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ResendVerificationRequest represents the request payload for re-sending
// the verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPasswordRequest represents the request payload for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the request payload for completing a reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// TokenPairResponse carries a fresh access/refresh token pair.
type TokenPairResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// issueTokens builds a token pair and stores the refresh token's hash so it
// can be checked during rotation.
func (h *AuthHandler) issueTokens(user *models.User) (*TokenPairResponse, error) {
	accessToken, err := middleware.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refreshToken, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refreshToken)); err != nil {
		return nil, err
	}
	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Register handles new account registration.
// @Summary     Register a new account
// @Description Create an account and send a verification email
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "Registration details"
// @Success     201 {object} Response "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Username or email taken"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	user, err := h.userService.Register(req.Username, req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Account created. Check your email to verify your address.", gin.H{"user": user})
}

// Login handles username/email and password authentication.
// @Summary     Log in
// @Description Authenticate with username or email plus password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} Response{data=TokenPairResponse} "Authenticated"
// @Failure     401 {object} ErrorResponse "Invalid credentials or unverified email"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	user, err := h.userService.AttemptLogin(req.Input, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Logged in", tokens)
}

// Refresh rotates a refresh token into a new token pair.
// @Summary     Refresh tokens
// @Description Exchange a valid refresh token for a new access/refresh pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} Response{data=TokenPairResponse} "New token pair"
// @Failure     401 {object} ErrorResponse "Invalid or superseded refresh token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	claims, err := middleware.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	// Only the most recently issued refresh token is accepted.
	storedHash, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	presented := middleware.HashToken(req.RefreshToken)
	if subtle.ConstantTimeCompare([]byte(storedHash), []byte(presented)) != 1 {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Tokens refreshed", tokens)
}

// VerifyEmail marks the account carrying the token as verified.
// @Summary     Verify email
// @Description Confirm an email address using the token from the verification email
// @Tags        auth
// @Produce     json
// @Param       token query string true "Verification token"
// @Success     200 {object} Response "Email verified"
// @Failure     400 {object} ErrorResponse "Invalid token"
// @Router      /auth/verify [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.userService.VerifyEmail(c.Query("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email verified", gin.H{"user": user})
}

// ResendVerification re-issues the verification email for an unverified account.
// @Summary     Resend verification email
// @Description Issue a fresh verification token and mail it again
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResendVerificationRequest true "Account email"
// @Success     200 {object} Response "Verification email sent"
// @Failure     400 {object} ErrorResponse "Already verified"
// @Failure     404 {object} ErrorResponse "Email not registered"
// @Router      /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	if err := h.userService.ResendVerification(req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Verification email sent", nil)
}

// ForgotPassword issues a password reset email.
// @Summary     Request a password reset
// @Description Send a reset link to the given email when an account exists
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} Response "Reset email sent when the account exists"
// @Router      /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	if err := h.userService.RequestPasswordReset(req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	// The response is identical whether or not the email is registered.
	respond(c, http.StatusOK, "If that email is registered, a reset link has been sent.", nil)
}

// ResetPassword completes a password reset.
// @Summary     Reset password
// @Description Set a new password using the token from the reset email
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Token and new password"
// @Success     200 {object} Response "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	if err := h.userService.ResetPassword(req.Token, req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Password updated", nil)
}

// GoogleLogin redirects to Google's consent page.
// @Summary     Start Google login
// @Description Redirect to Google's OAuth consent page
// @Tags        auth
// @Success     307 "Redirect to Google"
// @Failure     404 {object} ErrorResponse "Google login not configured"
// @Router      /auth/google [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Google login is not configured"))
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	state := hex.EncodeToString(buf)

	c.SetCookie(oauthStateCookie, state, 300, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthURL(state))
}

// GoogleCallback finishes the OAuth flow and issues tokens.
// @Summary     Complete Google login
// @Description Exchange the OAuth code for a Dompet session
// @Tags        auth
// @Produce     json
// @Param       code query string true "Authorization code"
// @Param       state query string true "CSRF state"
// @Success     200 {object} Response{data=TokenPairResponse} "Authenticated"
// @Failure     401 {object} ErrorResponse "State mismatch or exchange failure"
// @Router      /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Google login is not configured"))
		return
	}

	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || c.Query("state") != expected {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "OAuth state mismatch"))
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	info, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrUnauthorized, err))
		return
	}

	user, err := h.userService.LoginWithGoogle(info.ID, info.Email, info.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Logged in with Google", tokens)
}
