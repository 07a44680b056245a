package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/superpage/superpay-go/db"
	dbmodel "github.com/superpage/superpay-go/db/model"
	"github.com/superpage/superpay-go/server/model"
)

const claimsKey = "sessionClaims"

// AuthRequired parses the bearer token and stores the session claims on the
// gin context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Error("missing bearer token"))
			return
		}
		claims, err := s.parseSessionToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Error("invalid session token"))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func sessionClaims(c *gin.Context) *SessionClaims {
	claims, _ := c.MustGet(claimsKey).(*SessionClaims)
	return claims
}

// HandleRegister creates an account and returns a session token.
func (s *Server) HandleRegister(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(err.Error()))
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if _, err := s.store.GetUserByUsername(username); err == nil {
		c.JSON(http.StatusBadRequest, model.Error("username already exists"))
		return
	}
	if _, err := s.store.GetUserByIdentifier(strings.ToLower(strings.TrimSpace(req.Email))); err == nil {
		c.JSON(http.StatusBadRequest, model.Error("email already exists"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Error("failed to hash password"))
		return
	}

	user := &dbmodel.User{
		Name:          strings.TrimSpace(req.Name),
		Username:      username,
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:  string(hash),
		AvatarURL:     req.Avatar,
		WalletAddress: strings.TrimSpace(req.WalletAddress),
	}
	if err := s.store.CreateUser(user); err != nil {
		s.logger.Error("user create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Error("failed to create user"))
		return
	}

	token, err := s.GenerateSessionToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Error("failed to issue token"))
		return
	}

	c.JSON(http.StatusCreated, model.Response{
		Status:  "success",
		Message: "user created successfully",
		Data:    user,
		Token:   token,
	})
}

// HandleLogin authenticates by username or email.
func (s *Server) HandleLogin(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(err.Error()))
		return
	}

	user, err := s.store.GetUserByIdentifier(req.Identifier)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.Error("user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Error("lookup failed"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, model.Error("invalid credential"))
		return
	}

	token, err := s.GenerateSessionToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Error("failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Status:  "success",
		Message: "user signed in successfully",
		Data:    user,
		Token:   token,
	})
}

// HandleCurrentUser returns the authenticated user.
func (s *Server) HandleCurrentUser(c *gin.Context) {
	claims := sessionClaims(c)
	user, err := s.store.GetUserByID(claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, model.Error("user not found"))
		return
	}
	c.JSON(http.StatusOK, model.Success(user))
}
