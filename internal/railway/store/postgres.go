package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/railseat/internal/common/db"
	"github.com/railseat/pkg/railway/models"
)

// Postgres keeps everything in the railseat schema. Bookings take a row lock on the
// train, so concurrent bookings on one train serialize across every process sharing
// the database.
type Postgres struct {
	db *db.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewPostgres(database *db.DB) *Postgres {
	return &Postgres{db: database}
}

func (p *Postgres) AddTrain(ctx context.Context, stations []models.Station, departure models.TimeOfDay, seats int) (models.Train, error) {
	train := models.Train{
		Route:     append([]models.Station(nil), stations...),
		Departure: departure,
		Seats:     seats,
	}

	err := p.db.Conn().QueryRowContext(ctx, `
		INSERT INTO railseat.trains (route, departure_minutes, seats)
		VALUES ($1, $2, $3)
		RETURNING train_id
	`, pq.Array(stationStrings(stations)), departure.Minutes(), seats).Scan(&train.ID)
	if err != nil {
		return models.Train{}, fmt.Errorf("inserting train: %w", err)
	}

	p.db.Logger().Debug("Inserted train", "train_id", train.ID, "stations", len(stations))
	return train, nil
}

func (p *Postgres) Train(ctx context.Context, id int) (models.Train, error) {
	tx, err := p.db.BeginSnapshot(ctx)
	if err != nil {
		return models.Train{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	train, err := scanTrain(tx.QueryRowContext(ctx, `
		SELECT train_id, route, departure_minutes, seats
		FROM railseat.trains
		WHERE train_id = $1
	`, id))
	if err != nil {
		return models.Train{}, err
	}

	if train.Tickets, err = loadTickets(ctx, tx, "t.train_id = $1", id); err != nil {
		return models.Train{}, err
	}
	return train, tx.Commit()
}

func (p *Postgres) Trains(ctx context.Context) ([]models.Train, error) {
	tx, err := p.db.BeginSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT train_id, route, departure_minutes, seats
		FROM railseat.trains
		ORDER BY train_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying trains: %w", err)
	}
	defer rows.Close()

	var trains []models.Train
	byID := make(map[int]int)
	for rows.Next() {
		train, err := scanTrain(rows)
		if err != nil {
			return nil, err
		}
		byID[train.ID] = len(trains)
		trains = append(trains, train)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trains: %w", err)
	}

	tickets, err := loadTickets(ctx, tx, "TRUE")
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if i, ok := byID[t.TrainID]; ok {
			trains[i].Tickets = append(trains[i].Tickets, t)
		}
	}

	return trains, tx.Commit()
}

func (p *Postgres) AddPassenger(ctx context.Context, name string, age int) (models.Passenger, error) {
	passenger := models.Passenger{Name: name, Age: age}
	err := p.db.Conn().QueryRowContext(ctx, `
		INSERT INTO railseat.passengers (name, age)
		VALUES ($1, $2)
		RETURNING passenger_id
	`, name, age).Scan(&passenger.ID)
	if err != nil {
		return models.Passenger{}, fmt.Errorf("inserting passenger: %w", err)
	}
	return passenger, nil
}

func (p *Postgres) Passenger(ctx context.Context, id int) (models.Passenger, error) {
	return passengerByID(ctx, p.db.Conn(), id)
}

func (p *Postgres) PassengerTickets(ctx context.Context, passengerID int) ([]models.Ticket, error) {
	tx, err := p.db.BeginSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := passengerByID(ctx, tx, passengerID); err != nil {
		return nil, err
	}

	tickets, err := loadTickets(ctx, tx, "t.booking_person_id = $1", passengerID)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return tickets, tx.Commit()
}

func (p *Postgres) BookOnTrain(ctx context.Context, trainID int, fn BookFunc) (models.Ticket, error) {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The row lock is the per-train critical section. It is held until commit.
	train, err := scanTrain(tx.QueryRowContext(ctx, `
		SELECT train_id, route, departure_minutes, seats
		FROM railseat.trains
		WHERE train_id = $1
		FOR UPDATE
	`, trainID))
	if err != nil {
		return models.Ticket{}, err
	}

	if train.Tickets, err = loadTickets(ctx, tx, "t.train_id = $1", trainID); err != nil {
		return models.Ticket{}, err
	}

	ticket, err := fn(train)
	if err != nil {
		return models.Ticket{}, err
	}
	ticket.TrainID = trainID

	if _, err := passengerByID(ctx, tx, ticket.BookingPersonID); err != nil {
		return models.Ticket{}, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO railseat.tickets (train_id, from_station, to_station, booking_person_id, fare)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ticket_id
	`, trainID, string(ticket.From), string(ticket.To), ticket.BookingPersonID, ticket.Fare).Scan(&ticket.ID)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("inserting ticket: %w", err)
	}

	for pos, passenger := range ticket.Passengers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO railseat.ticket_passengers (ticket_id, passenger_id, position)
			VALUES ($1, $2, $3)
		`, ticket.ID, passenger.ID, pos)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("inserting passenger %d on ticket %d: %w", passenger.ID, ticket.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Ticket{}, fmt.Errorf("committing transaction: %w", err)
	}

	return ticket, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrain(row rowScanner) (models.Train, error) {
	var (
		train   models.Train
		route   []string
		minutes int
	)
	err := row.Scan(&train.ID, pq.Array(&route), &minutes, &train.Seats)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Train{}, ErrTrainNotFound
	}
	if err != nil {
		return models.Train{}, fmt.Errorf("scanning train: %w", err)
	}

	train.Route = make([]models.Station, len(route))
	for i, s := range route {
		train.Route[i] = models.Station(s)
	}
	train.Departure = models.TimeOfDay(minutes)
	return train, nil
}

func passengerByID(ctx context.Context, q queryer, id int) (models.Passenger, error) {
	passenger := models.Passenger{ID: id}
	err := q.QueryRowContext(ctx, `
		SELECT name, age FROM railseat.passengers WHERE passenger_id = $1
	`, id).Scan(&passenger.Name, &passenger.Age)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Passenger{}, fmt.Errorf("%w: %d", ErrPassengerNotFound, id)
	}
	if err != nil {
		return models.Passenger{}, fmt.Errorf("querying passenger %d: %w", id, err)
	}
	return passenger, nil
}

// loadTickets returns the tickets matching where with their passengers in booking
// order, oldest ticket first.
func loadTickets(ctx context.Context, q queryer, where string, args ...any) ([]models.Ticket, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.ticket_id, t.train_id, t.from_station, t.to_station, t.booking_person_id, t.fare,
		       p.passenger_id, p.name, p.age
		FROM railseat.tickets t
		JOIN railseat.ticket_passengers tp ON tp.ticket_id = t.ticket_id
		JOIN railseat.passengers p ON p.passenger_id = tp.passenger_id
		WHERE `+where+`
		ORDER BY t.ticket_id, tp.position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var (
			t        models.Ticket
			from, to string
			p        models.Passenger
		)
		if err := rows.Scan(&t.ID, &t.TrainID, &from, &to, &t.BookingPersonID, &t.Fare, &p.ID, &p.Name, &p.Age); err != nil {
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}

		if n := len(tickets); n > 0 && tickets[n-1].ID == t.ID {
			tickets[n-1].Passengers = append(tickets[n-1].Passengers, p)
			continue
		}
		t.From = models.Station(from)
		t.To = models.Station(to)
		t.Passengers = []models.Passenger{p}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tickets: %w", err)
	}
	return tickets, nil
}

func stationStrings(stations []models.Station) []string {
	out := make([]string, len(stations))
	for i, s := range stations {
		out[i] = string(s)
	}
	return out
}
