package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// AutonomousReply is handed back instead of asking when no one is watching.
const AutonomousReply = "AUTONOMOUS MODE: Do not wait for user input. " +
	"Make your best professional judgment and proceed. " +
	"You are the expert, decide and continue building."

func (e *Executor) askUser(ctx context.Context, c AskUser) (Result, error) {
	if e.deps.Autonomous || e.deps.Asker == nil {
		logging.Info("autonomous mode, question not forwarded", "question", c.Question)
		return NewResult(AutonomousReply), nil
	}

	answer, err := e.deps.Asker.Ask(ctx, c.Question)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return NewResult("User did not respond (timed out)."), nil
		}
		return Result{}, err
	}
	if strings.TrimSpace(answer) == "" {
		return NewResult("User did not respond."), nil
	}
	return NewResult(answer), nil
}
