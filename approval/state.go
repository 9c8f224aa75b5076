package approval

// State is the position of a flow in its approval life cycle.
type State int

const (
	AwaitingUserChoice State = iota
	Authorizing
	Confirming
	Resolved
	Failed
	Canceled
)

func (s State) String() string {
	switch s {
	case AwaitingUserChoice:
		return "awaiting user choice"
	case Authorizing:
		return "authorizing"
	case Confirming:
		return "confirming"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == Resolved || s == Canceled
}

// Method selects how a plan is authorized before submission.
type Method int

const (
	// MethodNone submits straight away with an empty grant.
	MethodNone Method = iota
	MethodPasscode
	MethodHardware
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodPasscode:
		return "passcode"
	case MethodHardware:
		return "hardware"
	default:
		return "unknown"
	}
}
