// Package route resolves stations to their ordinal position on a train's route.
//
// A route is held as a sequence of discrete station tokens. Lookups never search a
// serialized form of the route, so a station whose name is a substring of another
// (AGRA, AGRA_CANTT) can never produce a false match.
package route

import (
	"errors"
	"fmt"

	"github.com/railseat/pkg/railway/models"
)

var (
	ErrStationNotOnRoute = errors.New("train is not passing through this station")
	ErrInvalidRoute      = errors.New("invalid route")
)

// Index maps each station of one route to its zero-based position.
type Index struct {
	stations  []models.Station
	positions map[models.Station]int
}

// New scans the route once. Routes need at least two stations, every station must be
// known and none may repeat.
func New(stations []models.Station) (*Index, error) {
	if len(stations) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 stations, got %d", ErrInvalidRoute, len(stations))
	}

	idx := &Index{
		stations:  make([]models.Station, len(stations)),
		positions: make(map[models.Station]int, len(stations)),
	}
	copy(idx.stations, stations)

	for i, s := range stations {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown station %q at position %d", ErrInvalidRoute, s, i)
		}
		if prev, dup := idx.positions[s]; dup {
			return nil, fmt.Errorf("%w: station %s appears at positions %d and %d", ErrInvalidRoute, s, prev, i)
		}
		idx.positions[s] = i
	}

	return idx, nil
}

// PositionOf returns the station's position and whether it lies on the route at all.
func (idx *Index) PositionOf(s models.Station) (int, bool) {
	pos, ok := idx.positions[s]
	return pos, ok
}

// MustPositionOf is PositionOf that fails with ErrStationNotOnRoute.
func (idx *Index) MustPositionOf(s models.Station) (int, error) {
	pos, ok := idx.positions[s]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrStationNotOnRoute, s)
	}
	return pos, nil
}

func (idx *Index) Contains(s models.Station) bool {
	_, ok := idx.positions[s]
	return ok
}

// Len is the number of stations on the route.
func (idx *Index) Len() int {
	return len(idx.stations)
}

// Segments is the number of adjacent station pairs.
func (idx *Index) Segments() int {
	return len(idx.stations) - 1
}

// Station returns the station at pos.
func (idx *Index) Station(pos int) models.Station {
	return idx.stations[pos]
}
