package provisioning

import (
	"fmt"
	"time"

	"github.com/imamik/k8shub/internal/metrics"
)

// RunPhases executes all provisioning phases sequentially and stops at the
// first failure. Phase errors are returned unchanged so their taxonomy
// survives.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()

	for i, phase := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}

		phaseStart := time.Now()
		name := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases))
		LogPhaseStart(ctx.Observer, name)

		err := phase.Provision(ctx)
		metrics.RecordPhase(ctx.Provider.String(), phase.Name(), time.Since(phaseStart))
		if err != nil {
			LogPhaseFailed(ctx.Observer, name, err)
			return err
		}

		LogPhaseComplete(ctx.Observer, name, time.Since(phaseStart))
	}

	LogPhaseComplete(ctx.Observer, "provisioning", time.Since(start))
	return nil
}
