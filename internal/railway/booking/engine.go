// Package booking reserves seats on a train.
//
// A booking is validated, checked against overlap-aware capacity, priced and committed
// while the train is held exclusively, so two concurrent bookings can never both pass
// the capacity check and jointly overbook.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/railseat/internal/common/logger"
	"github.com/railseat/internal/railway/fare"
	"github.com/railseat/internal/railway/ledger"
	"github.com/railseat/internal/railway/lock"
	"github.com/railseat/internal/railway/route"
	"github.com/railseat/internal/railway/store"
	"github.com/railseat/pkg/railway/models"
)

var (
	ErrInsufficientSeats = errors.New("less tickets are available")
	ErrNoPassengers      = errors.New("ticket needs at least one passenger")
)

type Request struct {
	TrainID         int
	From            models.Station
	To              models.Station
	PassengerIDs    []int
	BookingPersonID int
	// Seats requested. The capacity check uses the larger of Seats and the number of
	// passengers, so a ticket never holds more seats than were checked.
	Seats int
}

func (r Request) seatsNeeded() int {
	return max(r.Seats, len(r.PassengerIDs))
}

// Publisher is told about every committed ticket.
type Publisher interface {
	TicketBooked(ctx context.Context, t models.Ticket) error
}

type Engine struct {
	store     store.Store
	locker    lock.Locker
	routes    *route.Cache
	publisher Publisher
	logger    logger.Logger
}

// NewEngine wires a booking engine. publisher may be nil.
func NewEngine(st store.Store, locker lock.Locker, routes *route.Cache, publisher Publisher, logger logger.Logger) *Engine {
	return &Engine{
		store:     st,
		locker:    locker,
		routes:    routes,
		publisher: publisher,
		logger:    logger,
	}
}

// Book commits a ticket or returns the reason it was rejected. Rejections leave the
// train's tickets untouched.
func (e *Engine) Book(ctx context.Context, req Request) (models.Ticket, error) {
	if len(req.PassengerIDs) == 0 {
		return models.Ticket{}, ErrNoPassengers
	}

	passengers, err := e.resolvePassengers(ctx, req)
	if err != nil {
		return models.Ticket{}, err
	}

	release, err := e.locker.Acquire(ctx, req.TrainID)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("locking train %d: %w", req.TrainID, err)
	}
	defer release()

	ticket, err := e.store.BookOnTrain(ctx, req.TrainID, func(train models.Train) (models.Ticket, error) {
		return e.decide(train, req, passengers)
	})
	if err != nil {
		e.logger.Debug("Booking rejected",
			"train_id", req.TrainID,
			"from", req.From,
			"to", req.To,
			"seats", req.seatsNeeded(),
			"error", err)
		return models.Ticket{}, err
	}

	e.logger.Info("Ticket booked",
		"ticket_id", ticket.ID,
		"train_id", ticket.TrainID,
		"from", ticket.From,
		"to", ticket.To,
		"seats", ticket.Size(),
		"fare", ticket.Fare)

	if e.publisher != nil {
		if err := e.publisher.TicketBooked(ctx, ticket); err != nil {
			e.logger.Warn("Failed to publish booking event", "ticket_id", ticket.ID, "error", err)
		}
	}

	return ticket, nil
}

// decide runs inside the train's critical section against a consistent snapshot.
func (e *Engine) decide(train models.Train, req Request, passengers []models.Passenger) (models.Ticket, error) {
	idx, err := e.routes.Index(train)
	if err != nil {
		return models.Ticket{}, err
	}

	interval, err := ledger.Resolve(idx, req.From, req.To)
	if err != nil {
		return models.Ticket{}, err
	}

	available := ledger.Available(train.Seats, idx, train.Tickets, interval)
	if need := req.seatsNeeded(); available < need {
		return models.Ticket{}, fmt.Errorf("%w: %d requested, %d free between %s and %s",
			ErrInsufficientSeats, need, available, req.From, req.To)
	}

	return models.Ticket{
		TrainID:         train.ID,
		From:            req.From,
		To:              req.To,
		Passengers:      passengers,
		BookingPersonID: req.BookingPersonID,
		Fare:            fare.Between(interval.From, interval.To),
	}, nil
}

func (e *Engine) resolvePassengers(ctx context.Context, req Request) ([]models.Passenger, error) {
	if _, err := e.store.Passenger(ctx, req.BookingPersonID); err != nil {
		return nil, fmt.Errorf("booking person: %w", err)
	}

	passengers := make([]models.Passenger, 0, len(req.PassengerIDs))
	for _, id := range req.PassengerIDs {
		p, err := e.store.Passenger(ctx, id)
		if err != nil {
			return nil, err
		}
		passengers = append(passengers, p)
	}
	return passengers, nil
}
