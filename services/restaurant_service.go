package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/models"
	"food-marketplace-api/store"

	"github.com/sirupsen/logrus"
)

const catalogTTL = 60 * time.Second

type RestaurantInput struct {
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Stars       float64 `json:"stars"`
	Reviews     string  `json:"reviews"`
	Categories  string  `json:"categories"`
	// FeaturedID optionally adds the new restaurant to a featured collection
	FeaturedID uint `json:"featuredId"`
}

// RestaurantUpdate carries the profile fields to change; nil fields are kept
type RestaurantUpdate struct {
	Name        *string  `json:"name"`
	Image       *string  `json:"image"`
	Description *string  `json:"description"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Stars       *float64 `json:"stars"`
	Reviews     *string  `json:"reviews"`
	Categories  *string  `json:"categories"`
}

// DishInput is used both to add and to patch a dish
type DishInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Image       *string  `json:"image"`
}

type FeaturedInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CategoryInput struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type RestaurantService struct {
	restaurants store.RestaurantStore
	cache       cache.Store
}

func NewRestaurantService(restaurants store.RestaurantStore, c cache.Store) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, cache: c}
}

// Create registers the owner's restaurant; an owner has at most one
func (s *RestaurantService) Create(ctx context.Context, ownerID uint, in RestaurantInput) (*models.Restaurant, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.Stars < 0 || in.Stars > 5 {
		return nil, apperr.Validation("stars must be between 0 and 5")
	}
	if _, err := s.restaurants.FindByOwner(ctx, ownerID); err == nil {
		return nil, apperr.Conflict("you already own a restaurant")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("failed to look up restaurant", err)
	}

	restaurant := &models.Restaurant{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(in.Name),
		Image:       in.Image,
		Description: in.Description,
		Address:     in.Address,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Stars:       in.Stars,
		Reviews:     in.Reviews,
		Categories:  in.Categories,
		Dishes:      []models.Dish{},
	}
	if err := s.restaurants.Create(ctx, restaurant); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("you already own a restaurant")
		}
		return nil, apperr.Internal("failed to create restaurant", err)
	}
	if in.FeaturedID != 0 {
		if err := s.restaurants.AttachToFeatured(ctx, in.FeaturedID, restaurant.ID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"restaurant_id": restaurant.ID,
				"featured_id":   in.FeaturedID,
			}).Warn("Failed to add restaurant to featured collection")
		}
	}
	s.invalidate(ctx, restaurant.ID)
	logrus.WithFields(logrus.Fields{"restaurant_id": restaurant.ID, "owner_id": ownerID}).Info("Restaurant created")
	return restaurant, nil
}

// Mine returns the restaurant owned by ownerID with its dishes
func (s *RestaurantService) Mine(ctx context.Context, ownerID uint) (*models.Restaurant, error) {
	restaurant, err := s.restaurants.FindByOwner(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("restaurant not found for this owner")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up restaurant", err)
	}
	return restaurant, nil
}

func (s *RestaurantService) Update(ctx context.Context, ownerID uint, in RestaurantUpdate) (*models.Restaurant, error) {
	restaurant, err := s.Mine(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		restaurant.Name = strings.TrimSpace(*in.Name)
	}
	if in.Stars != nil {
		if *in.Stars < 0 || *in.Stars > 5 {
			return nil, apperr.Validation("stars must be between 0 and 5")
		}
		restaurant.Stars = *in.Stars
	}
	setString(&restaurant.Image, in.Image)
	setString(&restaurant.Description, in.Description)
	setString(&restaurant.Address, in.Address)
	setString(&restaurant.Reviews, in.Reviews)
	setString(&restaurant.Categories, in.Categories)
	if in.Latitude != nil {
		restaurant.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		restaurant.Longitude = *in.Longitude
	}

	if err := s.restaurants.Update(ctx, restaurant); err != nil {
		return nil, apperr.Internal("failed to update restaurant", err)
	}
	s.invalidate(ctx, restaurant.ID)
	return restaurant, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (s *RestaurantService) Dishes(ctx context.Context, ownerID uint) ([]models.Dish, error) {
	restaurant, err := s.Mine(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if restaurant.Dishes == nil {
		return []models.Dish{}, nil
	}
	return restaurant.Dishes, nil
}

func (s *RestaurantService) AddDish(ctx context.Context, ownerID uint, in DishInput) (*models.Dish, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Price == nil {
		return nil, apperr.Validation("name and price are required")
	}
	if *in.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	restaurant, err := s.Mine(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dish := &models.Dish{
		RestaurantID: restaurant.ID,
		Name:         strings.TrimSpace(*in.Name),
		Price:        *in.Price,
	}
	setString(&dish.Description, in.Description)
	setString(&dish.Image, in.Image)
	if err := s.restaurants.AddDish(ctx, dish); err != nil {
		return nil, apperr.Internal("failed to add dish", err)
	}
	s.invalidate(ctx, restaurant.ID)
	return dish, nil
}

func (s *RestaurantService) UpdateDish(ctx context.Context, ownerID, dishID uint, in DishInput) (*models.Dish, error) {
	restaurant, err := s.Mine(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dish, err := s.restaurants.FindDish(ctx, restaurant.ID, dishID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("dish not found")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up dish", err)
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		dish.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, apperr.Validation("price must not be negative")
		}
		dish.Price = *in.Price
	}
	setString(&dish.Description, in.Description)
	setString(&dish.Image, in.Image)
	if err := s.restaurants.UpdateDish(ctx, dish); err != nil {
		return nil, apperr.Internal("failed to update dish", err)
	}
	s.invalidate(ctx, restaurant.ID)
	return dish, nil
}

func (s *RestaurantService) DeleteDish(ctx context.Context, ownerID, dishID uint) error {
	restaurant, err := s.Mine(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.restaurants.DeleteDish(ctx, restaurant.ID, dishID); errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("dish not found")
	} else if err != nil {
		return apperr.Internal("failed to delete dish", err)
	}
	s.invalidate(ctx, restaurant.ID)
	return nil
}

// Get returns a restaurant with its dishes, served from cache when fresh
func (s *RestaurantService) Get(ctx context.Context, id uint) (*models.Restaurant, error) {
	key := cache.RestaurantKey(id)
	var cached models.Restaurant
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
	} else if found {
		return &cached, nil
	}

	restaurant, err := s.restaurants.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("restaurant not found")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up restaurant", err)
	}
	if err := s.cache.Set(ctx, key, restaurant, catalogTTL); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return restaurant, nil
}

func (s *RestaurantService) List(ctx context.Context, search string) ([]models.Restaurant, error) {
	restaurants, err := s.restaurants.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, apperr.Internal("failed to list restaurants", err)
	}
	return restaurants, nil
}

// Featured returns every featured collection with restaurants and dishes
func (s *RestaurantService) Featured(ctx context.Context) ([]models.FeaturedCollection, error) {
	var collections []models.FeaturedCollection
	if found, err := s.cache.Get(ctx, cache.FeaturedKey, &collections); err != nil {
		logrus.WithError(err).Warn("Cache read failed")
	} else if found {
		return collections, nil
	}

	collections, err := s.restaurants.ListFeatured(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list featured collections", err)
	}
	if len(collections) == 0 {
		return nil, apperr.NotFound("no featured collections found")
	}
	if err := s.cache.Set(ctx, cache.FeaturedKey, collections, catalogTTL); err != nil {
		logrus.WithError(err).Warn("Cache write failed")
	}
	return collections, nil
}

func (s *RestaurantService) CreateFeatured(ctx context.Context, in FeaturedInput) (*models.FeaturedCollection, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	collection := &models.FeaturedCollection{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Restaurants: []models.Restaurant{},
	}
	if err := s.restaurants.CreateFeatured(ctx, collection); err != nil {
		return nil, apperr.Internal("failed to create featured collection", err)
	}
	s.invalidate(ctx, 0)
	return collection, nil
}

func (s *RestaurantService) AddToFeatured(ctx context.Context, collectionID, restaurantID uint) error {
	if err := s.restaurants.AttachToFeatured(ctx, collectionID, restaurantID); errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("featured collection or restaurant not found")
	} else if err != nil {
		return apperr.Internal("failed to update featured collection", err)
	}
	s.invalidate(ctx, restaurantID)
	return nil
}

// Categories lists the cuisine categories; an empty list is not an error
func (s *RestaurantService) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if found, err := s.cache.Get(ctx, cache.CategoriesKey, &categories); err != nil {
		logrus.WithError(err).Warn("Cache read failed")
	} else if found {
		return categories, nil
	}

	categories, err := s.restaurants.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list categories", err)
	}
	if err := s.cache.Set(ctx, cache.CategoriesKey, categories, catalogTTL); err != nil {
		logrus.WithError(err).Warn("Cache write failed")
	}
	return categories, nil
}

func (s *RestaurantService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	category := &models.Category{Name: name, Image: in.Image}
	if err := s.restaurants.CreateCategory(ctx, category); errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("category already exists")
	} else if err != nil {
		return nil, apperr.Internal("failed to create category", err)
	}
	if err := s.cache.Delete(ctx, cache.CategoriesKey); err != nil {
		logrus.WithError(err).Warn("Cache invalidation failed")
	}
	logrus.WithField("category_id", category.ID).Info("Category created")
	return category, nil
}

func (s *RestaurantService) invalidate(ctx context.Context, restaurantID uint) {
	keys := []string{cache.FeaturedKey}
	if restaurantID != 0 {
		keys = append(keys, cache.RestaurantKey(restaurantID))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logrus.WithError(err).Warn("Cache invalidation failed")
	}
}
