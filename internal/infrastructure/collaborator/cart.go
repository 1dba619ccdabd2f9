package collaborator

import (
	"context"
	"net/http"
)

type CartClient struct{ base }

func NewCartClient(baseURL string, client *http.Client) *CartClient {
	return &CartClient{base: newBase(baseURL, client)}
}

// DeleteCart calls DELETE /cart/{id}.
func (c *CartClient) DeleteCart(ctx context.Context, userID string) (int, error) {
	return c.do(ctx, http.MethodDelete, c.endpoint("cart", userID), nil)
}
