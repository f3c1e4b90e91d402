package fetch

import (
	"context"
	"log"
)

// Chain tries the primary provider first and falls back to the secondary
// when it fails. Only the fallback's error surfaces if both fail.
type Chain struct {
	Primary  Provider
	Fallback Provider
}

// NewChain builds a primary-then-fallback provider.
func NewChain(primary, fallback Provider) *Chain {
	return &Chain{Primary: primary, Fallback: fallback}
}

// Fetch tries the primary source, then the fallback.
func (c *Chain) Fetch(ctx context.Context, origin, destination, date string) (*Result, error) {
	result, err := c.Primary.Fetch(ctx, origin, destination, date)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		// Deadline spent on the primary call; don't start a second fetch.
		return nil, err
	}

	log.Printf("[Fetch] primary source failed (%v), falling back to open data", err)
	result, err = c.Fallback.Fetch(ctx, origin, destination, date)
	if err != nil {
		return nil, err
	}
	result.Source = SourceFallback
	return result, nil
}
