package handlers

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/k8shub/internal/metrics"
)

// metricsJob is the Pushgateway job name of CLI runs.
const metricsJob = "k8shub"

var pushMetrics = metrics.Push

// SetupLogging installs the zap backend as the global logger and returns ctx
// carrying it. Debug switches to development mode (console encoder, debug
// level, stack traces on warnings).
func SetupLogging(ctx context.Context, debug bool) context.Context {
	opts := zap.Options{Development: debug}
	logger := zap.New(zap.UseFlagOptions(&opts)).WithName("k8shub")
	log.SetLogger(logger)
	if ctx == nil {
		ctx = context.Background()
	}
	return log.IntoContext(ctx, logger)
}

// PushMetrics pushes the run's metrics when url is set.
func PushMetrics(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	if err := pushMetrics(ctx, url, metricsJob); err != nil {
		log.FromContext(ctx).Error(err, "metrics push failed", "url", url)
		return err
	}
	return nil
}
