package symcost

import "errors"

// Common errors used throughout the symcost package
var (
	// ErrInvalidWorkload is returned when a workload file cannot be interpreted.
	ErrInvalidWorkload = errors.New("invalid workload")
	// ErrNoCandidates indicates a workload without candidates.
	ErrNoCandidates = errors.New("workload has no candidates")
	// ErrDuplicateCandidate indicates two candidates share a name.
	ErrDuplicateCandidate = errors.New("duplicate candidate name")
	// ErrCandidateNotFound is returned when looking up an unknown candidate name.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrNonBooleanAssumption indicates a workload assumption that is not a Bool.
	ErrNonBooleanAssumption = errors.New("assumption is not boolean")
)
