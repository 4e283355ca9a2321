package call

// Resolve combines both probes. The call-state probe is authoritative when
// it can be read: an idle state beats a lingering entry in the call list,
// which is flagged as a conflict. Without it the call list decides, and with
// neither the line is treated as idle.
func Resolve(state, list Signal) Decision {
	switch state {
	case SignalActive:
		return Decision{Active: true}
	case SignalInactive:
		return Decision{Conflict: list == SignalActive}
	}
	return Decision{Active: list == SignalActive}
}
