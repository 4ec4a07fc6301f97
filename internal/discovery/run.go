package discovery

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Run drives the discovery service continuously on a fixed interval
// until ctx is canceled. Grounded on r3e-network-service_layer's use
// of robfig/cron/v3 for its periodic automation triggers.
func (s *Service) Run(ctx context.Context, intervalSeconds int) error {
	c := cron.New(cron.WithSeconds())
	spec := fmt.Sprintf("@every %ds", intervalSeconds)

	done := make(chan error, 1)
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error().Err(err).Msg("discovery sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("discovery: schedule sweep: %w", err)
	}

	c.Start()
	defer c.Stop()

	go func() {
		<-ctx.Done()
		done <- ctx.Err()
	}()

	return <-done
}

// RunOnce executes exactly one sweep and returns, for single-shot mode
// (discovery.single_shot=true) and for CLI/manual invocation.
func (s *Service) RunOnce(ctx context.Context) (SweepResult, error) {
	return s.Sweep(ctx)
}
