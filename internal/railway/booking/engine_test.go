package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/railseat/internal/common/logger"
	"github.com/railseat/internal/railway/ledger"
	"github.com/railseat/internal/railway/lock"
	"github.com/railseat/internal/railway/route"
	"github.com/railseat/internal/railway/store"
	"github.com/railseat/pkg/railway/models"
)

// Stations standing in for A, B, C, D.
var (
	stA = models.Delhi
	stB = models.Agra
	stC = models.Kanpur
	stD = models.Lucknow
)

type recordingPublisher struct {
	mu      sync.Mutex
	tickets []models.Ticket
	err     error
}

func (p *recordingPublisher) TicketBooked(_ context.Context, t models.Ticket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickets = append(p.tickets, t)
	return p.err
}

type fixture struct {
	store     *store.Memory
	engine    *Engine
	publisher *recordingPublisher
	train     models.Train
	people    []models.Passenger
}

func newFixture(t *testing.T, seats int) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	pub := &recordingPublisher{}
	train, err := st.AddTrain(ctx, []models.Station{stA, stB, stC, stD}, models.TimeOfDay(8*60), seats)
	if err != nil {
		t.Fatalf("AddTrain: %v", err)
	}

	f := &fixture{
		store:     st,
		engine:    NewEngine(st, lock.NewLocal(time.Second), route.NewCache(16), pub, logger.Nop()),
		publisher: pub,
		train:     train,
	}
	for _, age := range []int{34, 61, 7, 45} {
		p, _ := st.AddPassenger(ctx, "traveller", age)
		f.people = append(f.people, p)
	}
	return f
}

func (f *fixture) book(from, to models.Station, seats int, passengers ...models.Passenger) (models.Ticket, error) {
	ids := make([]int, len(passengers))
	for i, p := range passengers {
		ids[i] = p.ID
	}
	return f.engine.Book(context.Background(), Request{
		TrainID:         f.train.ID,
		From:            from,
		To:              to,
		PassengerIDs:    ids,
		BookingPersonID: passengers[0].ID,
		Seats:           seats,
	})
}

func (f *fixture) available(t *testing.T, from, to models.Station) int {
	t.Helper()
	train, err := f.store.Train(context.Background(), f.train.ID)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	idx, _ := route.New(train.Route)
	iv, err := ledger.Resolve(idx, from, to)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return ledger.Available(train.Seats, idx, train.Tickets, iv)
}

func TestBookFare(t *testing.T) {
	f := newFixture(t, 10)

	ac, err := f.book(stA, stC, 1, f.people[0])
	if err != nil {
		t.Fatalf("book A->C: %v", err)
	}
	ad, err := f.book(stA, stD, 1, f.people[1])
	if err != nil {
		t.Fatalf("book A->D: %v", err)
	}

	if ac.Fare != 600 || ad.Fare != 900 {
		t.Errorf("fares = %d, %d, want 600, 900", ac.Fare, ad.Fare)
	}
	if ac.ID == ad.ID {
		t.Error("tickets share an id")
	}
}

func TestBookCapacityReuse(t *testing.T) {
	f := newFixture(t, 2)

	if _, err := f.book(stA, stC, 1, f.people[0]); err != nil {
		t.Fatalf("book A->C: %v", err)
	}
	if _, err := f.book(stB, stD, 1, f.people[1]); err != nil {
		t.Fatalf("book B->D: %v", err)
	}

	if got := f.available(t, stA, stB); got != 1 {
		t.Errorf("available A-B = %d, want 1", got)
	}
	if got := f.available(t, stB, stC); got != 0 {
		t.Errorf("available B-C = %d, want 0", got)
	}

	_, err := f.book(stA, stD, 1, f.people[2])
	if !errors.Is(err, ErrInsufficientSeats) {
		t.Fatalf("book A->D err = %v, want ErrInsufficientSeats", err)
	}

	train, _ := f.store.Train(context.Background(), f.train.ID)
	if len(train.Tickets) != 2 {
		t.Errorf("rejected booking changed ticket count to %d", len(train.Tickets))
	}

	// C->D still has one seat; A->B too. Touching segments do not overlap.
	if _, err := f.book(stC, stD, 1, f.people[2]); err != nil {
		t.Errorf("book C->D: %v", err)
	}
	if _, err := f.book(stA, stB, 1, f.people[3]); err != nil {
		t.Errorf("book A->B: %v", err)
	}
}

func TestBookInvalidStations(t *testing.T) {
	f := newFixture(t, 5)

	tests := []struct {
		name     string
		from, to models.Station
	}{
		{"from off route", models.Mumbai, stC},
		{"to off route", stA, models.Pune},
		{"backwards", stC, stA},
		{"same station", stB, stB},
		// AGRA is on the route; AGRA_CANTT only contains it as text.
		{"substring station", models.AgraCantt, stD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.book(tt.from, tt.to, 1, f.people[0])
			if !errors.Is(err, ledger.ErrInvalidStations) {
				t.Errorf("err = %v, want ErrInvalidStations", err)
			}
		})
	}

	if len(f.publisher.tickets) != 0 {
		t.Errorf("published %d events for rejected bookings", len(f.publisher.tickets))
	}
}

func TestBookSeatsCheckedAgainstLargerOfCountAndPassengers(t *testing.T) {
	f := newFixture(t, 3)

	// Asking for 3 seats with one passenger checks 3 seats.
	if _, err := f.book(stA, stB, 3, f.people[0]); err != nil {
		t.Fatalf("book: %v", err)
	}

	// Two passengers with Seats 1 still need two seats on B->C.
	if _, err := f.book(stB, stC, 1, f.people[0], f.people[1]); err != nil {
		t.Fatalf("book two: %v", err)
	}
	if _, err := f.book(stB, stC, 1, f.people[2], f.people[3]); !errors.Is(err, ErrInsufficientSeats) {
		t.Errorf("err = %v, want ErrInsufficientSeats", err)
	}
}

func TestBookUnknownPassengers(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	_, err := f.engine.Book(ctx, Request{
		TrainID: f.train.ID, From: stA, To: stB,
		PassengerIDs: []int{f.people[0].ID, 999}, BookingPersonID: f.people[0].ID, Seats: 2,
	})
	if !errors.Is(err, store.ErrPassengerNotFound) {
		t.Errorf("unknown passenger err = %v", err)
	}

	_, err = f.engine.Book(ctx, Request{
		TrainID: f.train.ID, From: stA, To: stB,
		PassengerIDs: []int{f.people[0].ID}, BookingPersonID: 999, Seats: 1,
	})
	if !errors.Is(err, store.ErrPassengerNotFound) {
		t.Errorf("unknown booking person err = %v", err)
	}

	_, err = f.engine.Book(ctx, Request{TrainID: f.train.ID, From: stA, To: stB, BookingPersonID: f.people[0].ID, Seats: 1})
	if !errors.Is(err, ErrNoPassengers) {
		t.Errorf("no passengers err = %v", err)
	}
}

func TestBookUnknownTrain(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.engine.Book(context.Background(), Request{
		TrainID: 42, From: stA, To: stB,
		PassengerIDs: []int{f.people[0].ID}, BookingPersonID: f.people[0].ID, Seats: 1,
	})
	if !errors.Is(err, store.ErrTrainNotFound) {
		t.Errorf("err = %v, want ErrTrainNotFound", err)
	}
}

func TestBookRecordsHistoryAndPublishes(t *testing.T) {
	f := newFixture(t, 5)

	ticket, err := f.book(stA, stC, 2, f.people[0], f.people[2])
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	history, _ := f.store.PassengerTickets(context.Background(), f.people[0].ID)
	if len(history) != 1 || history[0].ID != ticket.ID {
		t.Errorf("history = %+v", history)
	}
	if len(f.publisher.tickets) != 1 || f.publisher.tickets[0].ID != ticket.ID {
		t.Errorf("published = %+v", f.publisher.tickets)
	}
}

func TestBookSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t, 5)
	f.publisher.err = errors.New("broker down")

	if _, err := f.book(stA, stB, 1, f.people[0]); err != nil {
		t.Fatalf("book failed because of publisher: %v", err)
	}
	train, _ := f.store.Train(context.Background(), f.train.ID)
	if len(train.Tickets) != 1 {
		t.Errorf("tickets = %d, want 1", len(train.Tickets))
	}
}

func TestBookConcurrentNeverOverbooks(t *testing.T) {
	const seats = 7
	f := newFixture(t, seats)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	legs := [][2]models.Station{{stA, stD}, {stA, stC}, {stB, stD}, {stB, stC}}

	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			leg := legs[i%len(legs)]
			_, err := f.book(leg[0], leg[1], 1, f.people[i%len(f.people)])
			switch {
			case err == nil:
				mu.Lock()
				success++
				mu.Unlock()
			case !errors.Is(err, ErrInsufficientSeats):
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	train, _ := f.store.Train(context.Background(), f.train.ID)
	idx, _ := route.New(train.Route)
	for seg, load := range ledger.SegmentLoads(idx, train.Tickets) {
		if load > seats {
			t.Errorf("segment %d carries %d passengers on %d seats", seg, load, seats)
		}
	}
	// Every leg covers B-C, so exactly seats bookings can succeed.
	if success != seats {
		t.Errorf("%d bookings succeeded, want %d", success, seats)
	}
}
