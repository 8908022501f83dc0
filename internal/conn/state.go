// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package conn

// State is a position in the lease lifecycle:
// Idle -> Connecting -> Connected -> (Executing -> Connected)* -> Closed.
// A failure while Connecting or Executing moves to Failed, which is always
// followed by Closed.
type State int32

const (
	Idle State = iota
	Connecting
	Connected
	Executing
	Failed
	Closed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Executing:
		return "executing"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
