package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrUnauthorized    = errors.New("automation: execution api rejected credentials")
	ErrExecutionFailed = errors.New("automation: execution failed")
	ErrNoResult        = errors.New("automation: execution finished without an agent reply")
)

const (
	StatusSuccess = "success"
	StatusFailed  = "error"
	StatusRunning = "running"
	StatusWaiting = "waiting"
)

type ExecutionGetter interface {
	GetExecution(ctx context.Context, id string) (*Execution, error)
}

// Resolver waits for an asynchronous execution and extracts the agent reply.
type Resolver struct {
	client ExecutionGetter
	policy Policy
	logger *slog.Logger
}

func NewResolver(client ExecutionGetter, policy Policy, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, policy: policy, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, executionID string) (*AgentResult, error) {
	ctx, span := tracer.Start(ctx, "automation.await_execution")
	span.SetAttributes(attribute.String("automation.execution_id", executionID))
	defer span.End()

	logger := r.logger.With("execution_id", executionID)
	var result *AgentResult
	attempts := 0

	err := Poll(ctx, r.policy, func(ctx context.Context, attempt int) (bool, error) {
		attempts = attempt
		exec, err := r.client.GetExecution(ctx, executionID)
		if err != nil {
			if IsAuthError(err) {
				logger.Error("execution api rejected credentials, check AUTOMATION_API_KEY", "err", err)
				return false, fmt.Errorf("%w: %v", ErrUnauthorized, err)
			}
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			logger.Warn("execution poll failed", "attempt", attempt, "err", err)
			return false, nil
		}

		switch exec.Status {
		case StatusSuccess:
			runData := exec.RunData()
			if runData == nil {
				logger.Warn("execution succeeded without runData")
				return false, ErrNoResult
			}
			res, err := ExtractAgentResult(runData)
			if err != nil {
				logger.Warn("execution runData unreadable", "err", err)
				return false, fmt.Errorf("%w: %v", ErrNoResult, err)
			}
			if res == nil {
				logger.Warn("execution succeeded but no step holds an agent reply")
				return false, ErrNoResult
			}
			if res.ToolError != nil {
				logger.Warn("slot tool output unreadable", "step", res.Step, "err", res.ToolError)
			}
			result = res
			return true, nil
		case StatusFailed:
			logger.Error("execution failed", "detail", exec.ErrorDetail())
			return false, ErrExecutionFailed
		case StatusRunning, StatusWaiting:
			logger.Debug("execution pending", "attempt", attempt, "status", exec.Status)
			return false, nil
		default:
			logger.Info("execution in unknown status", "attempt", attempt, "status", exec.Status)
			return false, nil
		}
	})

	span.SetAttributes(attribute.Int("automation.poll_attempts", attempts))
	if err != nil {
		if errors.Is(err, ErrPollBudgetExhausted) {
			logger.Warn("execution did not finish in time", "attempts", attempts, "delay", r.policy.Delay)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution not resolved")
		return nil, err
	}
	return result, nil
}
