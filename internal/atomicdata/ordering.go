package atomicdata

type Ordering int

const (
	ByLowerState Ordering = iota
	ByUpperState
)

// IndexView groups transition indices by one of their states without copying
// the transition table.
type IndexView struct {
	start []uint32
	count []uint32
	order []uint32
}

func newIndexView(numberStates, numberTransitions int, key func(transition int) uint32) IndexView {
	v := IndexView{
		start: make([]uint32, numberStates),
		count: make([]uint32, numberStates),
		order: make([]uint32, numberTransitions),
	}
	for t := range numberTransitions {
		v.count[key(t)]++
	}
	var offset uint32
	for s := range numberStates {
		v.start[s] = offset
		offset += v.count[s]
	}
	fill := make([]uint32, numberStates)
	for t := range numberTransitions {
		s := key(t)
		v.order[v.start[s]+fill[s]] = uint32(t)
		fill[s]++
	}
	return v
}

// Of returns the indices of all transitions whose key state is state, in table order.
func (v *IndexView) Of(state uint32) []uint32 {
	if int(state) >= len(v.start) {
		return nil
	}
	return v.order[v.start[state] : v.start[state]+v.count[state]]
}

func views(numberStates, numberTransitions int, lower, upper func(int) uint32) [2]IndexView {
	return [2]IndexView{
		ByLowerState: newIndexView(numberStates, numberTransitions, lower),
		ByUpperState: newIndexView(numberStates, numberTransitions, upper),
	}
}
