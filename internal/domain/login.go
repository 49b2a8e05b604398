package domain

type LoginState int

const (
	LoginIdle LoginState = iota
	LoginValidating
	LoginLookingUp
	LoginComparing
	LoginAuthenticated
	LoginRejected
	LoginSystemError
)

var loginTransitions = map[LoginState][]LoginState{
	LoginIdle:       {LoginValidating},
	LoginValidating: {LoginRejected, LoginLookingUp},
	LoginLookingUp:  {LoginRejected, LoginComparing, LoginSystemError},
	LoginComparing:  {LoginAuthenticated, LoginRejected},
}

func (s LoginState) String() string {
	switch s {
	case LoginIdle:
		return "Idle"
	case LoginValidating:
		return "Validating"
	case LoginLookingUp:
		return "LookingUp"
	case LoginComparing:
		return "Comparing"
	case LoginAuthenticated:
		return "Authenticated"
	case LoginRejected:
		return "Rejected"
	case LoginSystemError:
		return "SystemError"
	default:
		return "Error"
	}
}

// Terminal reports whether the attempt is over.
func (s LoginState) Terminal() bool {
	return s == LoginAuthenticated || s == LoginRejected || s == LoginSystemError
}

// CanTransition reports whether next may follow s within one attempt.
func (s LoginState) CanTransition(next LoginState) bool {
	for _, allowed := range loginTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
