package worker

import "errors"

// ErrBusy marks a transient apply failure: the engine cannot take writes
// right now but will again shortly. Workers hold the vote and retry
// instead of dropping it.
var ErrBusy = errors.New("rating engine busy")
