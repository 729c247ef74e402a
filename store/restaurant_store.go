package store

import (
	"context"
	"errors"
	"fmt"

	"food-marketplace-api/models"

	"gorm.io/gorm"
)

type RestaurantStore interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	FindByID(ctx context.Context, id uint) (*models.Restaurant, error)
	FindByOwner(ctx context.Context, ownerID uint) (*models.Restaurant, error)
	Update(ctx context.Context, restaurant *models.Restaurant) error
	List(ctx context.Context, search string) ([]models.Restaurant, error)

	AddDish(ctx context.Context, dish *models.Dish) error
	FindDish(ctx context.Context, restaurantID, dishID uint) (*models.Dish, error)
	UpdateDish(ctx context.Context, dish *models.Dish) error
	DeleteDish(ctx context.Context, restaurantID, dishID uint) error

	ListFeatured(ctx context.Context) ([]models.FeaturedCollection, error)
	CreateFeatured(ctx context.Context, collection *models.FeaturedCollection) error
	AttachToFeatured(ctx context.Context, collectionID, restaurantID uint) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	// CreateCategory returns ErrDuplicate when the name is taken
	CreateCategory(ctx context.Context, category *models.Category) error
}

type restaurantStore struct {
	db *gorm.DB
}

func NewRestaurantStore(db *gorm.DB) RestaurantStore {
	return &restaurantStore{db: db}
}

func dishOrder(db *gorm.DB) *gorm.DB { return db.Order("id asc") }

func (s *restaurantStore) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if err := s.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		if err = translate(err); err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create restaurant: %w", err)
	}
	return nil
}

func (s *restaurantStore) FindByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).Preload("Dishes", dishOrder).First(&restaurant, id).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (s *restaurantStore) FindByOwner(ctx context.Context, ownerID uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).Preload("Dishes", dishOrder).
		Where("owner_id = ?", ownerID).First(&restaurant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

// Update writes the editable profile columns; owner and dishes are untouched
func (s *restaurantStore) Update(ctx context.Context, restaurant *models.Restaurant) error {
	err := s.db.WithContext(ctx).Model(restaurant).
		Select("name", "image", "description", "address", "latitude", "longitude", "stars", "reviews", "categories").
		Updates(restaurant).Error
	if err != nil {
		return fmt.Errorf("failed to update restaurant: %w", err)
	}
	return nil
}

// List matches search against name and categories
func (s *restaurantStore) List(ctx context.Context, search string) ([]models.Restaurant, error) {
	restaurants := []models.Restaurant{}
	query := s.db.WithContext(ctx).Preload("Dishes", dishOrder).Order("id asc")
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR categories LIKE ?", like, like)
	}
	if err := query.Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return restaurants, nil
}

func (s *restaurantStore) AddDish(ctx context.Context, dish *models.Dish) error {
	if err := s.db.WithContext(ctx).Create(dish).Error; err != nil {
		return fmt.Errorf("failed to add dish: %w", err)
	}
	return nil
}

func (s *restaurantStore) FindDish(ctx context.Context, restaurantID, dishID uint) (*models.Dish, error) {
	var dish models.Dish
	err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", dishID, restaurantID).First(&dish).Error
	if err != nil {
		return nil, translate(err)
	}
	return &dish, nil
}

func (s *restaurantStore) UpdateDish(ctx context.Context, dish *models.Dish) error {
	err := s.db.WithContext(ctx).Model(dish).
		Select("name", "description", "price", "image").
		Updates(dish).Error
	if err != nil {
		return fmt.Errorf("failed to update dish: %w", err)
	}
	return nil
}

func (s *restaurantStore) DeleteDish(ctx context.Context, restaurantID, dishID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", dishID, restaurantID).Delete(&models.Dish{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete dish: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFeatured returns every collection with its restaurants and their dishes
func (s *restaurantStore) ListFeatured(ctx context.Context) ([]models.FeaturedCollection, error) {
	collections := []models.FeaturedCollection{}
	err := s.db.WithContext(ctx).
		Preload("Restaurants.Dishes", dishOrder).
		Order("id asc").
		Find(&collections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list featured collections: %w", err)
	}
	return collections, nil
}

func (s *restaurantStore) CreateFeatured(ctx context.Context, collection *models.FeaturedCollection) error {
	if err := s.db.WithContext(ctx).Create(collection).Error; err != nil {
		return fmt.Errorf("failed to create featured collection: %w", err)
	}
	return nil
}

func (s *restaurantStore) AttachToFeatured(ctx context.Context, collectionID, restaurantID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var collection models.FeaturedCollection
		if err := tx.First(&collection, collectionID).Error; err != nil {
			return translate(err)
		}
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, restaurantID).Error; err != nil {
			return translate(err)
		}
		return tx.Model(&collection).Association("Restaurants").Append(&restaurant)
	})
}

func (s *restaurantStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *restaurantStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(translate(err), ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}
