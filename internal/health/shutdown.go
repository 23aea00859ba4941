package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness gate. Shutdown routines set it to false so
// load balancers drain the instance before connections are closed.
func SetReady(v bool) {
	ready.Store(v)
}
