// Package db wraps the Postgres persistence layer of the companion backend.
package db

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/superpage/superpay-go/db/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Database owns the gorm connection and exposes the queries the server needs.
type Database struct {
	logger *zap.Logger
	conn   *gorm.DB
}

// New creates an unconnected Database.
func New(logger *zap.Logger) *Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Database{logger: logger}
}

// Init connects to Postgres and migrates the schema. The connection is
// retried once to ride out a database container that is still starting.
func (d *Database) Init(dsn string) (err error) {
	d.conn, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		d.logger.Warn("failed to connect to database, retrying in 5s", zap.Error(err))
		time.Sleep(5 * time.Second)
		d.conn, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
	}

	d.logger.Info("database connected")

	return d.conn.AutoMigrate(&model.User{}, &model.Profile{}, &model.Transaction{})
}

// CreateUser inserts a new user.
func (d *Database) CreateUser(user *model.User) error {
	return d.conn.Create(user).Error
}

// GetUserByID loads a user by primary key.
func (d *Database) GetUserByID(id uint) (*model.User, error) {
	user := &model.User{}
	if err := d.conn.First(user, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// GetUserByUsername loads a user by username.
func (d *Database) GetUserByUsername(username string) (*model.User, error) {
	user := &model.User{}
	if err := d.conn.Where("username = ?", username).First(user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// GetUserByIdentifier loads a user by username or email, for login.
func (d *Database) GetUserByIdentifier(identifier string) (*model.User, error) {
	user := &model.User{}
	if err := d.conn.Where("username = ? OR email = ?", identifier, identifier).First(user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// CreateProfile inserts a platform profile for a user.
func (d *Database) CreateProfile(profile *model.Profile) error {
	return d.conn.Create(profile).Error
}

// GetProfileByUsername loads the profile belonging to the given account
// username.
func (d *Database) GetProfileByUsername(username string) (*model.Profile, error) {
	user, err := d.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	profile := &model.Profile{}
	if err := d.conn.Where("user_id = ?", user.ID).First(profile).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return profile, nil
}

// UpdateProfile persists edits to an existing profile.
func (d *Database) UpdateProfile(profile *model.Profile) error {
	return d.conn.Save(profile).Error
}

// FindUserByPlatform resolves a platform identity to the owning user. This
// backs the extension's recipient lookup.
func (d *Database) FindUserByPlatform(platform, platformUsername string) (*model.User, error) {
	profile := &model.Profile{}
	err := d.conn.Where("platform = ? AND platform_username = ?", platform, platformUsername).First(profile).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return d.GetUserByID(profile.UserID)
}

// CreateTransaction records a completed tip.
func (d *Database) CreateTransaction(tx *model.Transaction) error {
	return d.conn.Create(tx).Error
}

// ListTransactionsTo returns tips addressed to a user, most recent first.
func (d *Database) ListTransactionsTo(userID uint) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := d.conn.Where("to_user_id = ?", userID).Order("created_at DESC").Find(&txs).Error
	return txs, err
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
