package domain

import "fmt"

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ---- Input / normalization errors (-32010 to -32029) ----

var (
	ErrSetupParse   = &EngineError{Code: -32010, Message: "setup JSON could not be parsed"}
	ErrCatalogParse = &EngineError{Code: -32011, Message: "product catalog JSON could not be parsed"}
	ErrPackageParse = &EngineError{Code: -32012, Message: "engine package JSON could not be parsed"}
	ErrRulesetParse = &EngineError{Code: -32013, Message: "protocol ruleset JSON could not be parsed"}
	ErrTargetsParse = &EngineError{Code: -32014, Message: "user targets JSON could not be parsed"}
	ErrBadTimestamp = &EngineError{Code: -32015, Message: "timestamp is not valid ISO-8601"}
)

// ---- Phase sequencing errors (-32030 to -32049) ----
//
// Collisions are programming errors in the sequencing rules themselves,
// never user-input problems, so they abort plan generation outright.

var (
	ErrPhaseIDCollision   = &EngineError{Code: -32030, Message: "duplicate phase_id in generated sequence"}
	ErrSequenceCollision  = &EngineError{Code: -32031, Message: "duplicate sequence_number in generated sequence"}
	ErrUnknownCyclingMode = &EngineError{Code: -32032, Message: "unknown cycling mode"}
	ErrEmptyPhaseSequence = &EngineError{Code: -32033, Message: "sequencer produced no phases"}
)

// ---- Store errors (-32050 to -32069) ----

var (
	ErrStoreInit    = &EngineError{Code: -32050, Message: "failed to initialize store"}
	ErrStoreQuery   = &EngineError{Code: -32051, Message: "store query failed"}
	ErrStoreWrite   = &EngineError{Code: -32052, Message: "store write failed"}
	ErrPlanNotFound = &EngineError{Code: -32053, Message: "plan not found"}
)

// ---- Config / CLI errors (-32070 to -32089) ----

var (
	ErrConfigInvalid = &EngineError{Code: -32070, Message: "invalid configuration"}
	ErrBadTimezone   = &EngineError{Code: -32071, Message: "unknown IANA timezone"}
)
