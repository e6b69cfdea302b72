// Package suitegovernance implements the suite lifecycle state machine,
// system-validation runs, human calibration, and suite versioning.
package suitegovernance

import (
	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

// Command names a governance state transition.
type Command string

const (
	CommandFreeze               Command = "freeze"
	CommandRunSystemValidation  Command = "run-system-validation"
	CommandStartHumanCalibration Command = "start-human-calibration"
	CommandCompleteCalibration  Command = "complete-human-calibration"
	CommandApproveForGA         Command = "approve-for-ga"
	CommandDeprecate            Command = "deprecate"
)

// preconditions lists, per command, the statuses from which the command
// may be issued. "deprecate" is valid from any status, handled separately.
var preconditions = map[Command][]domain.SuiteStatus{
	CommandFreeze:                {domain.SuiteDraft},
	CommandRunSystemValidation:   {domain.SuiteDraft},
	CommandStartHumanCalibration: {domain.SuiteSystemValidated},
	CommandCompleteCalibration:   {domain.SuiteSystemValidated},
	CommandApproveForGA:          {domain.SuiteHumanValidated},
}

// CheckPrecondition validates that suite is in a status from which command
// may be issued, returning a typed INVALID_STATUS error naming the
// required action otherwise.
func CheckPrecondition(command Command, suite domain.Suite) error {
	if command == CommandDeprecate {
		return nil // valid from any status
	}
	allowed, ok := preconditions[command]
	if !ok {
		return kerrors.New(kerrors.CodeInvalidStatus, "unknown governance command").
			WithDetails("command", string(command))
	}
	for _, status := range allowed {
		if suite.Status == status {
			return nil
		}
	}
	return kerrors.New(kerrors.CodeInvalidStatus, "suite is not in a status that permits this command").
		WithDetails("command", string(command)).
		WithDetails("current_status", string(suite.Status)).
		WithDetails("action_required", requiredActionFor(command, allowed))
}

func requiredActionFor(command Command, allowed []domain.SuiteStatus) string {
	if len(allowed) == 1 {
		return "transition suite to " + string(allowed[0]) + " before issuing " + string(command)
	}
	return "transition suite to one of the statuses that permit " + string(command)
}
