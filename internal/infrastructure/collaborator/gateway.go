package collaborator

import (
	"context"
	"net/http"

	dompay "github.com/Zhima-Mochi/minishop-payment/internal/domain/payment"
)

// GatewayClient stands in for the external payment provider; only the status code of a
// GET on the configured URL is consulted.
type GatewayClient struct {
	base
	target string
}

func NewGatewayClient(target string, client *http.Client) *GatewayClient {
	return &GatewayClient{base: newBase(target, client), target: target}
}

func (g *GatewayClient) Charge(ctx context.Context, _ dompay.Cart) (int, error) {
	return g.do(ctx, http.MethodGet, g.target, nil)
}
