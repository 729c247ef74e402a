package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"food-marketplace-api/models"
)

type OrderItem struct {
	DishID   uint    `json:"dishId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type NewOrder struct {
	RestaurantID    uint        `json:"restaurantId"`
	Items           []OrderItem `json:"items"`
	TotalAmount     float64     `json:"totalAmount"`
	DeliveryFee     *float64    `json:"deliveryFee,omitempty"`
	DeliveryAddress string      `json:"deliveryAddress,omitempty"`
	PaymentMethod   string      `json:"paymentMethod"`
}

type authResponse struct {
	User   models.User `json:"user"`
	Tokens Tokens      `json:"tokens"`
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*models.User, error) {
	var out authResponse
	if err := c.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if err := c.Session.Set(out.Tokens); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}
	return &out.User, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string, role models.UserRole) (*models.User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	if role != "" {
		body["role"] = string(role)
	}
	return c.authenticate(ctx, "/auth/register", body)
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// Logout revokes the refresh token server side and clears local storage.
// Local state is cleared even if the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	refresh := c.Session.Tokens().RefreshToken
	var err error
	if refresh != "" {
		var payload []byte
		if payload, err = json.Marshal(map[string]string{"refreshToken": refresh}); err == nil {
			var resp *http.Response
			if resp, err = c.send(ctx, http.MethodPost, "/auth/logout", payload, ""); err == nil {
				err = decodeResponse(resp, nil)
			}
		}
	}
	if clearErr := c.Session.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}

func (c *Client) PlaceOrder(ctx context.Context, order NewOrder) (*models.Order, error) {
	var out models.Order
	if err := c.Do(ctx, http.MethodPost, "/order/create-order", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.Do(ctx, http.MethodGet, "/order/my-orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Order(ctx context.Context, id uint) (*models.Order, error) {
	var out models.Order
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/order/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, id uint) (*models.Order, error) {
	var out models.Order
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/order/%d/cancel", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus is used by restaurant owners to advance an order
func (c *Client) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	var out struct {
		Order models.Order `json:"order"`
	}
	path := fmt.Sprintf("/featured/order?orderId=%d", id)
	if err := c.Do(ctx, http.MethodPatch, path, map[string]string{"status": string(status)}, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}
