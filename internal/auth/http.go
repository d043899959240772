package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
)

type Handler struct {
	svc *Service
	clk clock.Clock
}

func NewHandler(svc *Service, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Handler{svc: svc, clk: clk}
}

// Sender delivers OTP codes out of band. The dev sender just logs them.
type Sender interface {
	SendOTP(email, code string) error
}

type requestOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *Handler) Register(g *gin.RouterGroup, sender Sender) {
	g.POST("/auth/request-otp", h.requestOTP(sender))
	g.POST("/auth/verify-otp", h.verifyOTP)
	g.GET("/auth/session", h.session)
	g.POST("/auth/logout", h.logout)
}

func (h *Handler) requestOTP(sender Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requestOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}
		expiresAt, code, err := h.svc.RequestOTP(req.Email, h.clk.Now())
		if err != nil {
			if errors.Is(err, ErrInvalidEmail) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create otp"})
			return
		}
		if sender != nil {
			if err := sender.SendOTP(normalizeEmail(req.Email), code); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deliver otp"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "expiresAt": expiresAt})
	}
}

func (h *Handler) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
		return
	}
	user, token, expiresAt, err := h.svc.VerifyOTP(req.Email, req.Code, h.clk.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidOTPFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrInvalidOTP), errors.Is(err, ErrOTPExpired), errors.Is(err, ErrTooManyOTPAttempts):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify otp"})
		}
		return
	}
	h.svc.SetSessionCookie(c.Writer, c.Request, token, expiresAt)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) session(c *gin.Context) {
	user, _, ok := h.svc.AuthenticateRequest(c.Request, h.clk.Now())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) logout(c *gin.Context) {
	h.svc.RevokeSessionForRequest(c.Request)
	h.svc.ClearSessionCookie(c.Writer, c.Request)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RequireAPI authenticates the request and stores the user and session
// on the request context for downstream handlers.
func (h *Handler) RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, sess, ok := h.svc.AuthenticateRequest(c.Request, h.clk.Now())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		ctx := withUserContext(c.Request.Context(), user)
		ctx = withSessionContext(ctx, sess)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LogSender is the development OTP sender. It writes codes to the log
// instead of delivering mail.
type LogSender struct {
	Svc *Service
}

func (l LogSender) SendOTP(email, code string) error {
	l.Svc.log.Info().Str("email", email).Str("code", code).Msg("otp issued")
	return nil
}
