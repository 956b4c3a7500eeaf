package sim

import "errors"

var (
	errNoData    = errors.New("no data available")
	errStale     = errors.New("sample is stale")
	errTimedOut  = errors.New("timed out waiting for a message")
	errEmptyBody = errors.New("empty message dropped")
)
