package navigator

// State is the outcome of one navigation step.
type State int

const (
	Scanning State = iota
	Descending
	Resolved
	Exhausted
	Failed
)

var stateNames = map[State]string{
	Scanning:   "scanning",
	Descending: "descending",
	Resolved:   "resolved",
	Exhausted:  "exhausted",
	Failed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Frame is a pending directory visit.
type Frame struct {
	Path  string
	Depth int
}

// Transition is what a step decided. Path is set when Resolved; Children
// holds the frames to visit next, in order, when Descending.
type Transition struct {
	State    State
	Path     string
	Children []Frame
	Reason   string
}

func resolved(path, reason string) Transition {
	return Transition{State: Resolved, Path: path, Reason: reason}
}

func descend(path string, depth int, reason string) Transition {
	return Transition{State: Descending, Children: []Frame{{Path: path, Depth: depth}}, Reason: reason}
}

func exhausted(reason string) Transition {
	return Transition{State: Exhausted, Reason: reason}
}
