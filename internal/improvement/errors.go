package improvement

import (
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// ErrInfeasible is reported when no sweep candidate meets the feasibility
// rule. It is not fatal: the full grid evaluation is still returned.
var ErrInfeasible = errors.New("no feasible setpoint")

// InfeasibleResult carries the evaluated grid of an infeasible sweep.
type InfeasibleResult struct {
	Result *models.SweepResult
	Reason string
}

func (e *InfeasibleResult) Error() string {
	return fmt.Sprintf("%s for %s over %d candidates: %s",
		ErrInfeasible, e.Result.ProductLine, len(e.Result.Points), e.Reason)
}

func (e *InfeasibleResult) Unwrap() error {
	return ErrInfeasible
}

// UnknownTargetError indicates an unknown ranking target.
type UnknownTargetError struct {
	Target string
}

func (e *UnknownTargetError) Error() string {
	return "unknown ranking target: " + e.Target
}
