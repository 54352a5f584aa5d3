package maintenance

import (
	"context"
	"fmt"

	"github.com/railseat/internal/common/logger"
	"github.com/railseat/internal/railway/ledger"
	"github.com/railseat/internal/railway/route"
	"github.com/railseat/pkg/railway/models"
)

// TrainLister returns snapshots of every train.
type TrainLister interface {
	Trains(ctx context.Context) ([]models.Train, error)
}

// Violation is a segment carrying more passengers than the train has seats.
type Violation struct {
	TrainID int            `json:"train_id"`
	Segment int            `json:"segment"`
	From    models.Station `json:"from_station"`
	To      models.Station `json:"to_station"`
	Load    int            `json:"load"`
	Seats   int            `json:"seats"`
}

// AuditResult summarizes one pass over every train.
type AuditResult struct {
	TrainsChecked  int         `json:"trains_checked"`
	TicketsChecked int         `json:"tickets_checked"`
	Violations     []Violation `json:"violations"`
}

// Auditor verifies the seat capacity invariant: on every adjacent segment of every
// route the booked load never exceeds the train's seats.
type Auditor struct {
	trains TrainLister
	logger logger.Logger
}

func NewAuditor(trains TrainLister, logger logger.Logger) *Auditor {
	return &Auditor{
		trains: trains,
		logger: logger,
	}
}

func (a *Auditor) Audit(ctx context.Context) (AuditResult, error) {
	trains, err := a.trains.Trains(ctx)
	if err != nil {
		return AuditResult{}, fmt.Errorf("listing trains: %w", err)
	}

	var result AuditResult
	for _, train := range trains {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		idx, err := route.New(train.Route)
		if err != nil {
			a.logger.Warn("Skipping train with unusable route", "train_id", train.ID, "error", err)
			continue
		}

		result.TrainsChecked++
		result.TicketsChecked += len(train.Tickets)

		for seg, load := range ledger.SegmentLoads(idx, train.Tickets) {
			if load <= train.Seats {
				continue
			}
			result.Violations = append(result.Violations, Violation{
				TrainID: train.ID,
				Segment: seg,
				From:    idx.Station(seg),
				To:      idx.Station(seg + 1),
				Load:    load,
				Seats:   train.Seats,
			})
		}
	}

	return result, nil
}
