package recording

// Availability reports whether a capture mechanism can run on the current
// host/device pair. It is either Available or Unavailable.
type Availability interface {
	availability()
}

// Available marks a mechanism as usable.
type Available struct{}

// Unavailable marks a mechanism as unusable and says why.
type Unavailable struct {
	Reason string
}

func (Available) availability() {}
func (Unavailable) availability() {}

func (u Unavailable) Error() string {
	return u.Reason
}

// IsAvailable reports whether a is Available, returning the reason otherwise.
func IsAvailable(a Availability) (bool, string) {
	switch v := a.(type) {
	case Available:
		return true, ""
	case Unavailable:
		return false, v.Reason
	default:
		return false, "unknown availability"
	}
}
