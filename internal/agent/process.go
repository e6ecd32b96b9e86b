package agent

import (
	"context"

	"keeper/internal/domain"
	"keeper/internal/executor"
	"keeper/internal/logging"
	"keeper/internal/verify"
)

// Processor is the end-to-end pipeline for one instruction: decision loop,
// guard gate, execution, verification.
type Processor struct {
	loop     *Loop
	executor *executor.Executor
	repo     domain.Mutator
}

func NewProcessor(loop *Loop, exec *executor.Executor, repo domain.Mutator) *Processor {
	return &Processor{loop: loop, executor: exec, repo: repo}
}

// Process runs the full pipeline on behalf of actorID. A plan blocked by a
// pending clarification is returned without touching the repository.
func (p *Processor) Process(ctx context.Context, instruction, actorID string) (domain.Result, error) {
	before := p.repo.Snapshot()

	loopResult, err := p.loop.Run(ctx, instruction, before)
	if err != nil {
		return domain.Result{
			Plan:       loopResult.Plan,
			AgentTrace: loopResult.Trace,
			AgentStats: loopResult.Stats,
		}, err
	}

	result := domain.Result{
		Plan:       loopResult.Plan,
		AgentTrace: loopResult.Trace,
		AgentStats: loopResult.Stats,
	}
	if !loopResult.Plan.Executable() {
		logging.DevLog("plan not executable, returning clarification")
		return result, nil
	}

	execution, err := p.executor.Apply(loopResult.Plan, p.repo, actorID)
	result.Execution = &execution
	if err != nil {
		return result, err
	}

	after := p.repo.Snapshot()
	verification := verify.Run(loopResult.Plan, execution, before, after)
	result.Verification = &verification
	return result, nil
}
