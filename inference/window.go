package inference

// Window is the inference horizon for one call.
type Window struct {
	PastLen   int // number of evidence timesteps
	FutureLen int // number of policy timesteps
	InferLen  int // number of belief timesteps

	// FutureCutoff is the first timestep that takes the terminal message
	// instead of a message from its successor.
	FutureCutoff int
}

// NewWindow builds the horizon for pastLen evidence steps and a policy of
// futureLen steps. When lastTimestep is set the final policy action has no
// successor state, so the horizon shrinks by one.
func NewWindow(pastLen, futureLen int, lastTimestep bool) Window {
	inferLen := pastLen + futureLen
	if lastTimestep {
		inferLen--
	}
	return Window{
		PastLen:      pastLen,
		FutureLen:    futureLen,
		InferLen:     inferLen,
		FutureCutoff: pastLen + futureLen - 2,
	}
}

// IsPast reports whether timestep t carries evidence.
func (w Window) IsPast(t int) bool {
	return t < w.PastLen
}

// IsTerminal reports whether timestep t uses the terminal future message.
func (w Window) IsTerminal(t int) bool {
	return t >= w.FutureCutoff
}

// IsBoundary reports whether t is the first or last belief timestep.
func (w Window) IsBoundary(t int) bool {
	return t == 0 || t == w.InferLen-1
}
