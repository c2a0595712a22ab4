package quota

import "fmt"

// PersistenceError wraps a usage ledger failure. The tracker surfaces it and
// drops into "not loaded" state instead of crashing; while not loaded, all
// quota checks for free accounts fail closed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("usage ledger %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
