// Package occupancy answers read-only questions about trains and their tickets. Each
// query works on one consistent snapshot per train and never blocks bookings on other
// trains.
package occupancy

import (
	"context"
	"fmt"
	"sort"

	"github.com/railseat/internal/railway/ledger"
	"github.com/railseat/internal/railway/route"
	"github.com/railseat/internal/railway/store"
	"github.com/railseat/pkg/railway/models"
)

type Queries struct {
	store  store.Store
	routes *route.Cache
}

func New(st store.Store, routes *route.Cache) *Queries {
	return &Queries{store: st, routes: routes}
}

func (q *Queries) snapshot(ctx context.Context, trainID int) (models.Train, *route.Index, error) {
	train, err := q.store.Train(ctx, trainID)
	if err != nil {
		return models.Train{}, nil, err
	}
	idx, err := q.routes.Index(train)
	if err != nil {
		return models.Train{}, nil, err
	}
	return train, idx, nil
}

// AvailableSeats is the number of seats free on every segment between from and to.
func (q *Queries) AvailableSeats(ctx context.Context, trainID int, from, to models.Station) (int, error) {
	train, idx, err := q.snapshot(ctx, trainID)
	if err != nil {
		return 0, err
	}

	interval, err := ledger.Resolve(idx, from, to)
	if err != nil {
		return 0, err
	}

	return max(0, ledger.Available(train.Seats, idx, train.Tickets, interval)), nil
}

// BoardingCount sums the passengers whose ticket starts at station. Tickets passing
// through the station are not counted.
func (q *Queries) BoardingCount(ctx context.Context, trainID int, station models.Station) (int, error) {
	train, idx, err := q.snapshot(ctx, trainID)
	if err != nil {
		return 0, err
	}

	if !idx.Contains(station) {
		return 0, fmt.Errorf("%w: %s on train %d", route.ErrStationNotOnRoute, station, trainID)
	}

	count := 0
	for _, t := range train.Tickets {
		if t.From == station {
			count += t.Size()
		}
	}
	return count, nil
}

// OldestAge is the highest passenger age on the train, 0 when nobody is booked.
func (q *Queries) OldestAge(ctx context.Context, trainID int) (int, error) {
	train, err := q.store.Train(ctx, trainID)
	if err != nil {
		return 0, err
	}

	oldest := 0
	for _, t := range train.Tickets {
		for _, p := range t.Passengers {
			oldest = max(oldest, p.Age)
		}
	}
	return oldest, nil
}

// ArrivalAt is when train reaches station: departure plus one hour per hop. The
// second result is false when the station is not on the route.
func ArrivalAt(idx *route.Index, departure models.TimeOfDay, station models.Station) (models.TimeOfDay, bool) {
	pos, ok := idx.PositionOf(station)
	if !ok {
		return 0, false
	}
	return departure.AddHours(pos), true
}

// TrainsInWindow returns, in ascending order, the trains reaching station between start
// and end inclusive. Trains not calling at the station are skipped.
func (q *Queries) TrainsInWindow(ctx context.Context, station models.Station, start, end models.TimeOfDay) ([]int, error) {
	trains, err := q.store.Trains(ctx)
	if err != nil {
		return nil, err
	}

	ids := []int{}
	for _, train := range trains {
		idx, err := q.routes.Index(train)
		if err != nil {
			return nil, err
		}

		arrival, ok := ArrivalAt(idx, train.Departure, station)
		if !ok {
			continue
		}
		if arrival.Minutes() >= start.Minutes() && arrival.Minutes() <= end.Minutes() {
			ids = append(ids, train.ID)
		}
	}

	sort.Ints(ids)
	return ids, nil
}
