package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/hrassist/internal/telemetry"
)

// Refresher rebuilds the index when the corpus has changed.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// IndexRefresher is the JobProcessor that keeps the published index in step
// with the corpus file.
type IndexRefresher struct {
	target Refresher
}

func NewIndexRefresher(target Refresher) *IndexRefresher {
	return &IndexRefresher{target: target}
}

func (p *IndexRefresher) ProcessJobs(ctx context.Context) error {
	rebuilt, err := p.target.Refresh(ctx)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return fmt.Errorf("failed to refresh index: %w", err)
	}
	if rebuilt {
		log.Println("refresher: index rebuilt from updated corpus")
	}
	return nil
}
