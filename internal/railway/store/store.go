// Package store keeps trains, passengers and tickets.
//
// A train exclusively owns its tickets. A passenger's booking history is a lookup
// relation into those tickets, never a second copy. Snapshots handed out by a Store
// are private to the caller.
package store

import (
	"context"
	"errors"

	"github.com/railseat/pkg/railway/models"
)

var (
	ErrTrainNotFound     = errors.New("train not found")
	ErrPassengerNotFound = errors.New("passenger not found")
)

// BookFunc decides a booking against a consistent snapshot of one train. The returned
// ticket is committed as is, apart from its ID which the store assigns. Returning an
// error commits nothing.
type BookFunc func(train models.Train) (models.Ticket, error)

type Store interface {
	AddTrain(ctx context.Context, stations []models.Station, departure models.TimeOfDay, seats int) (models.Train, error)
	// Train returns the train with every ticket committed so far.
	Train(ctx context.Context, id int) (models.Train, error)
	// Trains returns every train ordered by ID.
	Trains(ctx context.Context) ([]models.Train, error)

	AddPassenger(ctx context.Context, name string, age int) (models.Passenger, error)
	Passenger(ctx context.Context, id int) (models.Passenger, error)
	// PassengerTickets returns the tickets booked by the passenger, oldest first.
	PassengerTickets(ctx context.Context, passengerID int) ([]models.Ticket, error)

	// BookOnTrain runs fn and commits its ticket while holding the train exclusively.
	// No other booking on the same train can interleave between the snapshot fn sees
	// and the commit.
	BookOnTrain(ctx context.Context, trainID int, fn BookFunc) (models.Ticket, error)

	Close() error
}

func cloneTrain(t models.Train) models.Train {
	out := t
	out.Route = append([]models.Station(nil), t.Route...)
	if t.Tickets != nil {
		out.Tickets = append([]models.Ticket(nil), t.Tickets...)
	}
	return out
}
