// Package service is the application surface of the seat inventory: trains,
// passengers, bookings and occupancy queries over one Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/railseat/internal/common/logger"
	"github.com/railseat/internal/railway/booking"
	"github.com/railseat/internal/railway/lock"
	"github.com/railseat/internal/railway/occupancy"
	"github.com/railseat/internal/railway/route"
	"github.com/railseat/internal/railway/store"
	"github.com/railseat/pkg/railway/models"
)

var (
	ErrInvalidTrain     = errors.New("invalid train")
	ErrInvalidPassenger = errors.New("invalid passenger")
)

type Service struct {
	store   store.Store
	engine  *booking.Engine
	queries *occupancy.Queries
	logger  logger.Logger
}

type Options struct {
	Store     store.Store
	Locker    lock.Locker
	Publisher booking.Publisher // optional
	CacheSize int
	Logger    logger.Logger
}

func New(opts Options) *Service {
	routes := route.NewCache(opts.CacheSize)
	return &Service{
		store:   opts.Store,
		engine:  booking.NewEngine(opts.Store, opts.Locker, routes, opts.Publisher, opts.Logger),
		queries: occupancy.New(opts.Store, routes),
		logger:  opts.Logger,
	}
}

// AddTrain registers a train and returns its id. The route must be valid and the train
// must have at least one seat.
func (s *Service) AddTrain(ctx context.Context, stations []models.Station, departure models.TimeOfDay, seats int) (int, error) {
	if _, err := route.New(stations); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTrain, err)
	}
	if seats <= 0 {
		return 0, fmt.Errorf("%w: seat capacity must be positive, got %d", ErrInvalidTrain, seats)
	}
	if !departure.SameDay() {
		return 0, fmt.Errorf("%w: departure %d minutes is outside one day", ErrInvalidTrain, departure.Minutes())
	}

	train, err := s.store.AddTrain(ctx, stations, departure, seats)
	if err != nil {
		return 0, fmt.Errorf("adding train: %w", err)
	}

	s.logger.Info("Train added",
		"train_id", train.ID,
		"stations", len(stations),
		"departure", departure.String(),
		"seats", seats)

	return train.ID, nil
}

func (s *Service) AddPassenger(ctx context.Context, name string, age int) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidPassenger)
	}
	if age < 0 {
		return 0, fmt.Errorf("%w: age cannot be negative", ErrInvalidPassenger)
	}

	p, err := s.store.AddPassenger(ctx, name, age)
	if err != nil {
		return 0, fmt.Errorf("adding passenger: %w", err)
	}

	s.logger.Debug("Passenger added", "passenger_id", p.ID)
	return p.ID, nil
}

// BookTicket books req and returns the committed ticket.
func (s *Service) BookTicket(ctx context.Context, req booking.Request) (models.Ticket, error) {
	return s.engine.Book(ctx, req)
}

func (s *Service) AvailableSeats(ctx context.Context, trainID int, from, to models.Station) (int, error) {
	return s.queries.AvailableSeats(ctx, trainID, from, to)
}

func (s *Service) BoardingCount(ctx context.Context, trainID int, station models.Station) (int, error) {
	return s.queries.BoardingCount(ctx, trainID, station)
}

func (s *Service) OldestAge(ctx context.Context, trainID int) (int, error) {
	return s.queries.OldestAge(ctx, trainID)
}

func (s *Service) TrainsInWindow(ctx context.Context, station models.Station, start, end models.TimeOfDay) ([]int, error) {
	return s.queries.TrainsInWindow(ctx, station, start, end)
}

// PassengerTickets lists the tickets the passenger booked as booking person.
func (s *Service) PassengerTickets(ctx context.Context, passengerID int) ([]models.Ticket, error) {
	return s.store.PassengerTickets(ctx, passengerID)
}

func (s *Service) Train(ctx context.Context, trainID int) (models.Train, error) {
	return s.store.Train(ctx, trainID)
}
