package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/superpage/superpay-go/db"
	dbmodel "github.com/superpage/superpay-go/db/model"
	"github.com/superpage/superpay-go/server/model"
)

// HandleCreateProfile links a platform identity to the current user.
func (s *Server) HandleCreateProfile(c *gin.Context) {
	var req model.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(err.Error()))
		return
	}

	claims := sessionClaims(c)
	profile := &dbmodel.Profile{
		UserID:           claims.UserID,
		Platform:         req.Platform,
		PlatformUsername: req.PlatformUsername,
		DisplayName:      req.DisplayName,
		Description:      req.Description,
	}
	if err := s.store.CreateProfile(profile); err != nil {
		c.JSON(http.StatusInternalServerError, model.Error("failed to create profile"))
		return
	}
	c.JSON(http.StatusCreated, model.Success(profile))
}

// HandleGetProfile returns the profile for an account username.
func (s *Server) HandleGetProfile(c *gin.Context) {
	profile, err := s.store.GetProfileByUsername(c.Param("username"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.Error("profile not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Error("lookup failed"))
		return
	}
	c.JSON(http.StatusOK, model.Success(profile))
}

// HandleUpdateSocials edits the social links on the caller's profile.
func (s *Server) HandleUpdateSocials(c *gin.Context) {
	var req model.UpdateSocialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(err.Error()))
		return
	}

	claims := sessionClaims(c)
	username := c.Param("username")
	if claims.Username != username {
		c.JSON(http.StatusForbidden, model.Error("cannot edit another user's profile"))
		return
	}

	profile, err := s.store.GetProfileByUsername(username)
	if err != nil {
		c.JSON(http.StatusNotFound, model.Error("profile not found"))
		return
	}

	profile.WebsiteURL = req.WebsiteURL
	profile.TwitterURL = req.TwitterURL
	profile.YoutubeURL = req.YoutubeURL
	if err := s.store.UpdateProfile(profile); err != nil {
		c.JSON(http.StatusInternalServerError, model.Error("failed to update profile"))
		return
	}
	c.JSON(http.StatusOK, model.Success(profile))
}

// HandleFindByPlatform resolves a platform username to the owning creator's
// wallet address. This is the user-directory endpoint the extension calls
// before encoding a payment request; a miss is a 404, never an empty wallet.
func (s *Server) HandleFindByPlatform(c *gin.Context) {
	var req model.FindProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(err.Error()))
		return
	}

	user, err := s.store.FindUserByPlatform(req.Platform, c.Param("username"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.Error("creator is not registered"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Error("lookup failed"))
		return
	}
	if user.WalletAddress == "" {
		c.JSON(http.StatusNotFound, model.Error("creator has no wallet on file"))
		return
	}

	c.JSON(http.StatusOK, model.Success(model.WalletResponse{WalletAddress: user.WalletAddress}))
}
