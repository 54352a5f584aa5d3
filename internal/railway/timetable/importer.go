package timetable

import (
	"context"
	"fmt"

	"github.com/railseat/internal/common/logger"
	"github.com/railseat/pkg/railway/models"
)

// TrainAdder registers one train.
type TrainAdder interface {
	AddTrain(ctx context.Context, stations []models.Station, departure models.TimeOfDay, seats int) (int, error)
}

type Result struct {
	Imported int
	Skipped  int
	TrainIDs []int
}

type Importer struct {
	trains TrainAdder
	logger logger.Logger
}

func NewImporter(trains TrainAdder, logger logger.Logger) *Importer {
	return &Importer{trains: trains, logger: logger}
}

// Import adds every valid row of the timetable at path. Rows that fail to parse or are
// rejected as trains are skipped and counted.
func (i *Importer) Import(ctx context.Context, path string) (Result, error) {
	var res Result
	p := NewParser(i.logger)

	callbacks := ParseCallbacks{
		OnEntry: func(entry *Entry) error {
			id, err := i.trains.AddTrain(ctx, entry.Route, entry.Departure, entry.Seats)
			if err != nil {
				i.logger.Warn("Skipping timetable train", "line", entry.Line, "error", err)
				res.Skipped++
				return nil
			}
			res.Imported++
			res.TrainIDs = append(res.TrainIDs, id)
			return nil
		},
		OnInvalid: func(line int, err error) error {
			i.logger.Warn("Skipping timetable row", "line", line, "error", err)
			res.Skipped++
			return nil
		},
	}

	if err := p.ParseFile(ctx, path, callbacks); err != nil {
		return res, fmt.Errorf("importing timetable: %w", err)
	}

	i.logger.Info("Timetable imported",
		"path", path,
		"imported", res.Imported,
		"skipped", res.Skipped)

	return res, nil
}
