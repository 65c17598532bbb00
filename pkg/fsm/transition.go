package fsm

// Transition is an edge of the state graph
type Transition struct {
	From State
	To   State
}

func (t Transition) String() string {
	return string(t.From) + " -> " + string(t.To)
}

// T declares the edges from one state to each of the states in tos
func T(from State, tos ...State) []Transition {
	edges := make([]Transition, 0, len(tos))
	for _, to := range tos {
		edges = append(edges, Transition{From: from, To: to})
	}
	return edges
}

func flatten(groups [][]Transition) []Transition {
	var all []Transition
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}
