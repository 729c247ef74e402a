// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"food-marketplace-api/config"
	"food-marketplace-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated, private in-memory database
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is "password123"
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Name: email, Email: email, PasswordHash: string(hash), Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateRestaurant inserts a restaurant with a single dish priced at 20
func CreateRestaurant(t *testing.T, db *gorm.DB, owner *models.User) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{
		OwnerID: owner.ID,
		Name:    "Papa's Pizza",
		Image:   "/uploads/papa.png",
		Address: "1 Main St",
		Dishes:  []models.Dish{{Name: "Pizza", Price: 20}},
	}
	require.NoError(t, db.Create(restaurant).Error)
	return restaurant
}
