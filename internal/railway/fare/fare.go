package fare

// UnitFare is the price of travelling one segment between adjacent stations.
const UnitFare = 300

// Between prices a journey from position from to position to. Callers guarantee to > from.
func Between(from, to int) int {
	return UnitFare * (to - from)
}
