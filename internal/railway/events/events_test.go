package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"

	"github.com/railseat/pkg/railway/models"
)

func sampleTicket() models.Ticket {
	return models.Ticket{
		ID:      12,
		TrainID: 3,
		From:    models.Delhi,
		To:      models.Kanpur,
		Passengers: []models.Passenger{
			{ID: 1, Name: "Asha", Age: 41},
			{ID: 2, Name: "Ravi", Age: 9},
		},
		BookingPersonID: 1,
		Fare:            600,
	}
}

func TestNewTicketBooked(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	ev := NewTicketBooked(sampleTicket(), at)

	if ev.Seats != 2 || len(ev.PassengerIDs) != 2 || ev.PassengerIDs[1] != 2 {
		t.Errorf("event = %+v", ev)
	}
	if ev.BookedAt.Location() != time.UTC {
		t.Errorf("BookedAt not in UTC: %s", ev.BookedAt)
	}
	if _, err := uuid.Parse(ev.EventID); err != nil {
		t.Errorf("EventID %q: %v", ev.EventID, err)
	}

	again := NewTicketBooked(sampleTicket(), at)
	if again.EventID == ev.EventID {
		t.Errorf("two events share id %s", ev.EventID)
	}
}

func TestTicketPublisherSendsKeyedJSON(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "ticket-booked" {
			return fmt.Errorf("topic = %q", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "3" {
			return fmt.Errorf("key = %q, want train id", key)
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var ev TicketBooked
		if err := json.Unmarshal(value, &ev); err != nil {
			return err
		}
		if ev.TicketID != 12 || ev.Fare != 600 || ev.From != models.Delhi {
			return fmt.Errorf("event = %+v", ev)
		}
		if ev.EventID == "" {
			return fmt.Errorf("event has no id")
		}
		return nil
	})

	pub := NewTicketPublisher(NewSaramaProducerFrom(mp), "ticket-booked")
	if err := pub.TicketBooked(context.Background(), sampleTicket()); err != nil {
		t.Fatalf("TicketBooked: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestTicketPublisherReportsFailure(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewTicketPublisher(NewSaramaProducerFrom(mp), "ticket-booked")
	err := pub.TicketBooked(context.Background(), sampleTicket())
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("err = %v, want ErrOutOfBrokers", err)
	}
	pub.Close()
}

func TestSaramaProducerSkipsCancelledContext(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	p := NewSaramaProducerFrom(mp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Publish(ctx, "ticket-booked", "", []byte("{}")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	p.Close()
}

func TestNopProducer(t *testing.T) {
	var p Producer = Nop{}
	if err := p.Publish(context.Background(), "any", "k", nil); err != nil {
		t.Errorf("Publish: %v", err)
	}
}

func TestTicketPublisherWithoutBrokers(t *testing.T) {
	pub := NewTicketPublisher(Nop{}, "ticket-booked")
	if err := pub.TicketBooked(context.Background(), sampleTicket()); err != nil {
		t.Errorf("TicketBooked: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
