// Package server implements the companion backend: account registration,
// profile lookup for the extension, and tip transaction records.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	dbmodel "github.com/superpage/superpay-go/db/model"
)

// Store is the persistence surface the handlers need. *db.Database
// implements it; tests substitute a fake.
type Store interface {
	CreateUser(user *dbmodel.User) error
	GetUserByID(id uint) (*dbmodel.User, error)
	GetUserByUsername(username string) (*dbmodel.User, error)
	GetUserByIdentifier(identifier string) (*dbmodel.User, error)
	CreateProfile(profile *dbmodel.Profile) error
	GetProfileByUsername(username string) (*dbmodel.Profile, error)
	UpdateProfile(profile *dbmodel.Profile) error
	FindUserByPlatform(platform, platformUsername string) (*dbmodel.User, error)
	CreateTransaction(tx *dbmodel.Transaction) error
	ListTransactionsTo(userID uint) ([]dbmodel.Transaction, error)
}

// Config carries server settings.
type Config struct {
	JWTSecret   string
	CORSEnabled bool
}

// Server wires the HTTP surface over the store.
type Server struct {
	config Config
	logger *zap.Logger
	store  Store
}

// New creates a server.
func New(logger *zap.Logger, store Store, config Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{config: config, logger: logger, store: store}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if s.config.CORSEnabled {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.POST("/auth/register", s.HandleRegister)
	r.POST("/auth/login", s.HandleLogin)
	r.GET("/auth/me", s.AuthRequired(), s.HandleCurrentUser)

	r.POST("/profile", s.AuthRequired(), s.HandleCreateProfile)
	r.GET("/profile/:username", s.HandleGetProfile)
	r.PATCH("/profile/:username/socials", s.AuthRequired(), s.HandleUpdateSocials)
	r.POST("/profile/find/:username", s.HandleFindByPlatform)

	r.POST("/transactions", s.HandleCreateTransaction)
	r.GET("/transactions/me", s.AuthRequired(), s.HandleMyTransactions)

	return r
}

// Start runs the server on the given port. Blocks.
func (s *Server) Start(port string) error {
	s.logger.Info("server listening", zap.String("port", port))
	return s.Router().Run(":" + port)
}
