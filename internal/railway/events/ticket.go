package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/railseat/pkg/railway/models"
)

// TicketBooked is published once a ticket is committed. Messages are keyed by train
// so a train's bookings stay ordered within one partition. EventID is unique per
// message so consumers can drop redeliveries.
type TicketBooked struct {
	EventID         string         `json:"eventId"`
	TicketID        int            `json:"ticketId"`
	TrainID         int            `json:"trainId"`
	From            models.Station `json:"fromStation"`
	To              models.Station `json:"toStation"`
	BookingPersonID int            `json:"bookingPersonId"`
	PassengerIDs    []int          `json:"passengerIds"`
	Seats           int            `json:"seats"`
	Fare            int            `json:"fare"`
	BookedAt        time.Time      `json:"bookedAt"`
}

func NewTicketBooked(t models.Ticket, at time.Time) TicketBooked {
	ids := make([]int, len(t.Passengers))
	for i, p := range t.Passengers {
		ids[i] = p.ID
	}
	return TicketBooked{
		EventID:         uuid.NewString(),
		TicketID:        t.ID,
		TrainID:         t.TrainID,
		From:            t.From,
		To:              t.To,
		BookingPersonID: t.BookingPersonID,
		PassengerIDs:    ids,
		Seats:           t.Size(),
		Fare:            t.Fare,
		BookedAt:        at.UTC(),
	}
}

// TicketPublisher sends TicketBooked events to one topic.
type TicketPublisher struct {
	producer Producer
	topic    string
}

func NewTicketPublisher(producer Producer, topic string) *TicketPublisher {
	return &TicketPublisher{producer: producer, topic: topic}
}

func (p *TicketPublisher) TicketBooked(ctx context.Context, t models.Ticket) error {
	payload, err := json.Marshal(NewTicketBooked(t, time.Now()))
	if err != nil {
		return fmt.Errorf("encoding ticket %d: %w", t.ID, err)
	}

	if err := p.producer.Publish(ctx, p.topic, strconv.Itoa(t.TrainID), payload); err != nil {
		return fmt.Errorf("publishing ticket %d: %w", t.ID, err)
	}
	return nil
}

func (p *TicketPublisher) Close() error {
	return p.producer.Close()
}
