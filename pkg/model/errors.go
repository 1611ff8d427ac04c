package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrStoreUnavailable indicates the document store could not serve a
	// query.
	ErrStoreUnavailable = goerr.New("document store unavailable")

	// ErrRecordNotFound indicates an absent document. This is an expected
	// outcome (HTTP 404), not a system failure.
	ErrRecordNotFound = goerr.New("record not found")

	// ErrOracleUnavailable indicates a completion or embedding call failed.
	ErrOracleUnavailable = goerr.New("oracle unavailable")

	// ErrUnknownTool indicates the model requested a tool that was never
	// offered to it. This is an invariant violation, not a retry case.
	ErrUnknownTool = goerr.New("unknown tool requested")

	// ErrToolExecution indicates a registered tool failed while running.
	ErrToolExecution = goerr.New("tool execution failed")

	// ErrAgentExhausted indicates the agent hit its iteration cap without
	// producing a final answer.
	ErrAgentExhausted = goerr.New("agent exhausted iteration limit")
)
