package session

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingPairing
	StateConnected
	StateClosing
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingPairing:
		return "awaiting_pairing"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type input int

const (
	inOpen input = iota
	inPairingCode
	inOpened
	inClosed
	inPairingExpired
	inRetry
	inClose
	inCloseDone
)

type effect int

const (
	effEnableReconnect effect = iota
	effDisableReconnect
	effStartTransport
	effTeardown
	effLogout
	effPurgeCredentials
	effIssuePairing
	effArmRefresh
	effCancelRefresh
	effCancelRetry
	effDiscardPairing
	effRejectPairingWait
	effSettlePairingWait
	effResetAttempts
	effScheduleRetry
)

// facts is the part of the Connection a transition is allowed to look at.
type facts struct {
	autoReconnect          bool
	invalidatesCredentials bool
	retryAfterLogout       bool
	logoutOnClose          bool
	purgeOnClose           bool
}

type step struct {
	to      State
	effects []effect
}

// transition maps (state, input) to the next state and the side effects to run,
// in order. ok is false when the input has no meaning in the current state.
func transition(from State, in input, f facts) (step, bool) {
	switch in {
	case inOpen:
		// A scheduled retry owns the next connect while auto-reconnect is on.
		if from == StateIdle || (from == StateDisconnected && !f.autoReconnect) {
			return step{StateConnecting, []effect{effEnableReconnect, effCancelRetry, effStartTransport}}, true
		}
	case inPairingCode:
		switch from {
		case StateConnecting, StateAwaitingPairing:
			return step{StateAwaitingPairing, []effect{effIssuePairing, effArmRefresh}}, true
		}
	case inOpened:
		switch from {
		case StateConnecting, StateAwaitingPairing:
			return step{StateConnected, []effect{effCancelRefresh, effDiscardPairing, effSettlePairingWait, effResetAttempts}}, true
		}
	case inPairingExpired:
		if from == StateAwaitingPairing {
			return step{StateConnecting, []effect{effDiscardPairing, effTeardown, effStartTransport}}, true
		}
	case inClosed:
		switch from {
		case StateConnecting, StateAwaitingPairing, StateConnected:
			effects := []effect{effCancelRefresh, effDiscardPairing, effTeardown}
			if f.invalidatesCredentials {
				effects = append(effects, effPurgeCredentials)
				if !f.retryAfterLogout {
					return step{StateDisconnected, append(effects, effDisableReconnect)}, true
				}
			}
			if f.autoReconnect {
				effects = append(effects, effScheduleRetry)
			}
			return step{StateDisconnected, effects}, true
		}
	case inRetry:
		if from == StateDisconnected && f.autoReconnect {
			return step{StateConnecting, []effect{effStartTransport}}, true
		}
	case inClose:
		if from == StateClosing {
			return step{}, false
		}
		effects := []effect{effDisableReconnect, effCancelRetry, effCancelRefresh, effRejectPairingWait, effDiscardPairing}
		if f.logoutOnClose && from == StateConnected {
			effects = append(effects, effLogout)
		}
		effects = append(effects, effTeardown)
		if f.purgeOnClose {
			effects = append(effects, effPurgeCredentials)
		}
		return step{StateClosing, effects}, true
	case inCloseDone:
		if from == StateClosing {
			return step{StateDisconnected, nil}, true
		}
	}
	return step{}, false
}
