package anthropic

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// rateLimitedClient delays CreateMessage calls to stay under a
// requests-per-minute budget shared by every caller of the client.
type rateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps inner with a token bucket allowing rpm requests
// per minute. A non-positive rpm returns inner unchanged.
func NewRateLimitedClient(inner Client, rpm int) Client {
	if rpm <= 0 {
		return inner
	}
	return &rateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

func (c *rateLimitedClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "anthropic: rate limit wait")
	}
	return c.inner.CreateMessage(ctx, req)
}
