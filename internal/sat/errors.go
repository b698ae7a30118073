package sat

import "errors"

// Sentinel errors matching the taxonomy in the module's design notes:
// capacity overflow and the two explicitly-unsupported LEQ analysis paths
// are programmer-visible hard errors, never silent truncations.
var (
	// ErrCapacityOverflow is returned when a LEQ clause's size reaches
	// maxLeqSize.
	ErrCapacityOverflow = errors.New("cardsat: leq clause size exceeds capacity")

	// ErrLeqReasonUnsupported is returned when analyzeFinal walks through a
	// LEQ reason while extracting the assumption conflict core.
	ErrLeqReasonUnsupported = errors.New("cardsat: analyzeFinal over a leq reason is unsupported")

	// ErrCcminLeqUnsupported is returned when ccmin_mode=1 minimization
	// encounters a LEQ reason.
	ErrCcminLeqUnsupported = errors.New("cardsat: ccmin_mode=1 over a leq reason is unsupported")

	// ErrRootLevelOnly is returned by operations that may only be invoked
	// at decision level 0.
	ErrRootLevelOnly = errors.New("cardsat: operation requires decision level 0")
)
