package infrastructure

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushMetrics sends everything in gatherer to a Prometheus Pushgateway under
// the given job, replacing the job's previous metrics
func PushMetrics(ctx context.Context, url, job, instance string, gatherer prometheus.Gatherer) error {
	pusher := push.New(url, job).Gatherer(gatherer)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
