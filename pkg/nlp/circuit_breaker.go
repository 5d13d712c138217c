package nlp

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig holds configuration for circuit breaking.
type CircuitBreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// CircuitBreakerClient wraps a Client with circuit breaking logic, so a
// provider that keeps failing is left alone for a cool-down period instead
// of delaying every question.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewCircuitBreakerClient creates a new circuit breaker client.
func NewCircuitBreakerClient(client Client, cfg CircuitBreakerConfig, logger *slog.Logger, name string) *CircuitBreakerClient {
	if cfg.ReadyToTripRatio <= 0 {
		cfg.ReadyToTripRatio = 0.6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// Chat implements Client.
func (c *CircuitBreakerClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Chat(ctx, messages)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*Response), nil
}

// Close implements Client.
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}
