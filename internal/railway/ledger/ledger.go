// Package ledger does the seat accounting for one train: which booked intervals
// overlap a query interval and how many seats they hold.
//
// All intervals are half-open over route positions, [from, to). A ticket ending at
// the station where another begins shares no segment with it.
package ledger

import (
	"errors"
	"fmt"

	"github.com/railseat/internal/railway/route"
	"github.com/railseat/pkg/railway/models"
)

var ErrInvalidStations = errors.New("invalid stations")

// Interval is a forward journey between two route positions, From < To.
type Interval struct {
	From int
	To   int
}

// Segments is the number of adjacent station pairs the interval covers.
func (iv Interval) Segments() int {
	return iv.To - iv.From
}

// Overlaps reports whether the two intervals share at least one segment.
func (iv Interval) Overlaps(other Interval) bool {
	return max(iv.From, other.From) < min(iv.To, other.To)
}

// Resolve turns a station pair into an interval on idx. Both stations must lie on the
// route and from must come strictly before to.
func Resolve(idx *route.Index, from, to models.Station) (Interval, error) {
	fromPos, ok := idx.PositionOf(from)
	if !ok {
		return Interval{}, fmt.Errorf("%w: %s is not on the route", ErrInvalidStations, from)
	}
	toPos, ok := idx.PositionOf(to)
	if !ok {
		return Interval{}, fmt.Errorf("%w: %s is not on the route", ErrInvalidStations, to)
	}
	if fromPos >= toPos {
		return Interval{}, fmt.Errorf("%w: %s does not come before %s", ErrInvalidStations, from, to)
	}
	return Interval{From: fromPos, To: toPos}, nil
}

// OverlapCount sums the passengers of every ticket whose interval shares a segment
// with query. Tickets with a station off the route are skipped.
func OverlapCount(idx *route.Index, tickets []models.Ticket, query Interval) int {
	count := 0
	for _, t := range tickets {
		iv, err := Resolve(idx, t.From, t.To)
		if err != nil {
			continue
		}
		if iv.Overlaps(query) {
			count += t.Size()
		}
	}
	return count
}

// Available is the number of seats still free on every segment of query.
func Available(seats int, idx *route.Index, tickets []models.Ticket, query Interval) int {
	return seats - OverlapCount(idx, tickets, query)
}

// SegmentLoads returns the passenger load of each adjacent segment; element i is the
// load between positions i and i+1.
func SegmentLoads(idx *route.Index, tickets []models.Ticket) []int {
	loads := make([]int, idx.Segments())
	for _, t := range tickets {
		iv, err := Resolve(idx, t.From, t.To)
		if err != nil {
			continue
		}
		for seg := iv.From; seg < iv.To; seg++ {
			loads[seg] += t.Size()
		}
	}
	return loads
}
