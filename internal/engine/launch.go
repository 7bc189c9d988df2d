package engine

import (
	"context"

	"github.com/danieljhkim/modslayer/internal/moderr"
)

// Launch resolves how to start the configured game and, unless req.DryRun
// is set, starts it. No persisted state is touched.
func (e *Engine) Launch(ctx context.Context, req *LaunchRequest) (*LaunchResult, error) {
	if req.Chooser == nil {
		return nil, moderr.Errorf(moderr.ErrLaunch, "launch", "", "no chooser provided")
	}

	plan, err := e.resolver.Resolve(e.catalog.GamePath(), req.Chooser)
	if err != nil {
		return nil, err
	}

	result := &LaunchResult{Plan: plan}
	if req.DryRun {
		return result, nil
	}

	if err := e.launcher.Launch(ctx, plan); err != nil {
		return nil, err
	}
	result.Started = true
	return result, nil
}
