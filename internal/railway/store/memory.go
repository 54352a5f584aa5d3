package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/railseat/pkg/railway/models"
)

// Memory is an in-process Store. Each train has its own lock guarding its tickets;
// the store lock guards the id counters and lookup maps.
//
// Lock order is train then store. The store lock is never held while waiting for a
// train lock.
type Memory struct {
	mu            sync.RWMutex
	trains        map[int]*trainEntry
	passengers    map[int]models.Passenger
	history       map[int][]ticketRef
	nextTrain     int
	nextPassenger int
	nextTicket    int
}

type trainEntry struct {
	mu    sync.RWMutex
	train models.Train
}

// ticketRef locates a ticket inside its owning train.
type ticketRef struct {
	trainID int
	index   int
}

func NewMemory() *Memory {
	return &Memory{
		trains:     make(map[int]*trainEntry),
		passengers: make(map[int]models.Passenger),
		history:    make(map[int][]ticketRef),
	}
}

func (m *Memory) AddTrain(_ context.Context, stations []models.Station, departure models.TimeOfDay, seats int) (models.Train, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTrain++
	train := models.Train{
		ID:        m.nextTrain,
		Route:     append([]models.Station(nil), stations...),
		Departure: departure,
		Seats:     seats,
	}
	m.trains[train.ID] = &trainEntry{train: train}
	return cloneTrain(train), nil
}

func (m *Memory) entry(id int) (*trainEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.trains[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTrainNotFound, id)
	}
	return e, nil
}

func (m *Memory) Train(_ context.Context, id int) (models.Train, error) {
	e, err := m.entry(id)
	if err != nil {
		return models.Train{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneTrain(e.train), nil
}

func (m *Memory) Trains(ctx context.Context) ([]models.Train, error) {
	m.mu.RLock()
	ids := make([]int, 0, len(m.trains))
	for id := range m.trains {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Ints(ids)

	trains := make([]models.Train, 0, len(ids))
	for _, id := range ids {
		t, err := m.Train(ctx, id)
		if err != nil {
			return nil, err
		}
		trains = append(trains, t)
	}
	return trains, nil
}

func (m *Memory) AddPassenger(_ context.Context, name string, age int) (models.Passenger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextPassenger++
	p := models.Passenger{ID: m.nextPassenger, Name: name, Age: age}
	m.passengers[p.ID] = p
	return p, nil
}

func (m *Memory) Passenger(_ context.Context, id int) (models.Passenger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.passengers[id]
	if !ok {
		return models.Passenger{}, fmt.Errorf("%w: %d", ErrPassengerNotFound, id)
	}
	return p, nil
}

func (m *Memory) PassengerTickets(_ context.Context, passengerID int) ([]models.Ticket, error) {
	m.mu.RLock()
	if _, ok := m.passengers[passengerID]; !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("%w: %d", ErrPassengerNotFound, passengerID)
	}
	refs := append([]ticketRef(nil), m.history[passengerID]...)
	entries := make(map[int]*trainEntry, len(refs))
	for _, ref := range refs {
		entries[ref.trainID] = m.trains[ref.trainID]
	}
	m.mu.RUnlock()

	tickets := make([]models.Ticket, 0, len(refs))
	for _, ref := range refs {
		e := entries[ref.trainID]
		e.mu.RLock()
		tickets = append(tickets, e.train.Tickets[ref.index])
		e.mu.RUnlock()
	}
	return tickets, nil
}

func (m *Memory) BookOnTrain(ctx context.Context, trainID int, fn BookFunc) (models.Ticket, error) {
	e, err := m.entry(trainID)
	if err != nil {
		return models.Ticket{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return models.Ticket{}, err
	}

	ticket, err := fn(cloneTrain(e.train))
	if err != nil {
		return models.Ticket{}, err
	}

	m.mu.Lock()
	if _, ok := m.passengers[ticket.BookingPersonID]; !ok {
		m.mu.Unlock()
		return models.Ticket{}, fmt.Errorf("%w: booking person %d", ErrPassengerNotFound, ticket.BookingPersonID)
	}
	m.nextTicket++
	ticket.ID = m.nextTicket
	ticket.TrainID = trainID
	ticket.Passengers = append([]models.Passenger(nil), ticket.Passengers...)
	m.history[ticket.BookingPersonID] = append(m.history[ticket.BookingPersonID], ticketRef{
		trainID: trainID,
		index:   len(e.train.Tickets),
	})
	m.mu.Unlock()

	e.train.Tickets = append(e.train.Tickets, ticket)
	return ticket, nil
}

func (m *Memory) Close() error {
	return nil
}
