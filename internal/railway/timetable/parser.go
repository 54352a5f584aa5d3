// Package timetable loads trains from a CSV timetable.
//
// The file has a header row naming the columns route, departure and seats in any
// order. route is a "|" separated list of stations, departure is HH:MM.
package timetable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/railseat/internal/common/logger"
	"github.com/railseat/pkg/railway/models"
)

var requiredColumns = []string{"route", "departure", "seats"}

// Entry is one parsed timetable row.
type Entry struct {
	Line      int
	Route     []models.Station
	Departure models.TimeOfDay
	Seats     int
}

type ParseCallbacks struct {
	OnEntry func(entry *Entry) error
	// OnInvalid receives rows that could not be parsed. When nil they are logged and
	// skipped.
	OnInvalid func(line int, err error) error
}

type Parser struct {
	logger logger.Logger
}

func NewParser(logger logger.Logger) *Parser {
	return &Parser{logger: logger}
}

func (p *Parser) ParseFile(ctx context.Context, path string, callbacks ParseCallbacks) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening timetable: %w", err)
	}
	defer f.Close()

	p.logger.Info("Parsing timetable", "path", path)
	return p.Parse(ctx, f, callbacks)
}

func (p *Parser) Parse(ctx context.Context, r io.Reader, callbacks ParseCallbacks) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	headerMap := make(map[string]int)
	for i, h := range header {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := headerMap[col]; !ok {
			return fmt.Errorf("timetable header is missing column %q", col)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed CSV (a stray quote, say) costs one row, not the file.
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return fmt.Errorf("reading record: %w", err)
			}
			if err := p.invalid(callbacks, parseErr.StartLine, err); err != nil {
				return err
			}
			continue
		}
		line, _ := reader.FieldPos(0)

		entry, err := parseEntry(record, headerMap)
		if err != nil {
			if err := p.invalid(callbacks, line, err); err != nil {
				return err
			}
			continue
		}
		entry.Line = line

		if callbacks.OnEntry != nil {
			if err := callbacks.OnEntry(entry); err != nil {
				return err
			}
		}
		count++
	}

	p.logger.Debug("Parsed timetable", "entries", count)
	return nil
}

func (p *Parser) invalid(callbacks ParseCallbacks, line int, err error) error {
	if callbacks.OnInvalid != nil {
		return callbacks.OnInvalid(line, err)
	}
	p.logger.Warn("Skipping timetable row", "line", line, "error", err)
	return nil
}

func parseEntry(record []string, headerMap map[string]int) (*Entry, error) {
	field := func(name string) string {
		if i, ok := headerMap[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var errs []error
	entry := &Entry{}

	for _, raw := range strings.Split(field("route"), "|") {
		s, err := models.ParseStation(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entry.Route = append(entry.Route, s)
	}

	dep, err := models.ParseTimeOfDay(field("departure"))
	if err != nil {
		errs = append(errs, fmt.Errorf("departure: %w", err))
	}
	entry.Departure = dep

	seats, err := strconv.Atoi(field("seats"))
	if err != nil {
		errs = append(errs, fmt.Errorf("seats: %w", err))
	}
	entry.Seats = seats

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entry, nil
}
