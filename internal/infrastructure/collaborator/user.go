package collaborator

import (
	"context"
	"net/http"

	dompay "github.com/Zhima-Mochi/minishop-payment/internal/domain/payment"
)

// UserClient talks to the user service.
type UserClient struct{ base }

func NewUserClient(baseURL string, client *http.Client) *UserClient {
	return &UserClient{base: newBase(baseURL, client)}
}

// CheckUser calls GET /check/{id}; 200 means a registered user.
func (c *UserClient) CheckUser(ctx context.Context, userID string) (int, error) {
	return c.do(ctx, http.MethodGet, c.endpoint("check", userID), nil)
}

// AddOrder calls POST /order/{id} with the history entry as JSON.
func (c *UserClient) AddOrder(ctx context.Context, userID string, entry dompay.HistoryEntry) (int, error) {
	return c.do(ctx, http.MethodPost, c.endpoint("order", userID), entry)
}
