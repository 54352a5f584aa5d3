package models

import (
	"fmt"
	"strings"
)

// Station is one stop from the closed set of stations served by the network.
type Station string

const (
	Delhi      Station = "DELHI"
	Agra       Station = "AGRA"
	AgraCantt  Station = "AGRA_CANTT"
	Kanpur     Station = "KANPUR"
	Lucknow    Station = "LUCKNOW"
	Jaipur     Station = "JAIPUR"
	Mumbai     Station = "MUMBAI"
	Pune       Station = "PUNE"
	PuneJn     Station = "PUNE_JN"
	Kolkata    Station = "KOLKATA"
	Chennai    Station = "CHENNAI"
	Bengaluru  Station = "BENGALURU"
	Hyderabad  Station = "HYDERABAD"
	Ahmedabad  Station = "AHMEDABAD"
	Bhopal     Station = "BHOPAL"
	Varanasi   Station = "VARANASI"
	Patna      Station = "PATNA"
	Chandigarh Station = "CHANDIGARH"
)

// AllStations lists every station in its canonical order.
var AllStations = []Station{
	Delhi,
	Agra,
	AgraCantt,
	Kanpur,
	Lucknow,
	Jaipur,
	Mumbai,
	Pune,
	PuneJn,
	Kolkata,
	Chennai,
	Bengaluru,
	Hyderabad,
	Ahmedabad,
	Bhopal,
	Varanasi,
	Patna,
	Chandigarh,
}

var knownStations = func() map[Station]struct{} {
	m := make(map[Station]struct{}, len(AllStations))
	for _, s := range AllStations {
		m[s] = struct{}{}
	}
	return m
}()

// Valid reports whether s belongs to the station set.
func (s Station) Valid() bool {
	_, ok := knownStations[s]
	return ok
}

func (s Station) String() string {
	return string(s)
}

// ParseStation matches a whole station token, ignoring case and surrounding space.
func ParseStation(v string) (Station, error) {
	s := Station(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown station %q", v)
	}
	return s, nil
}

// UnmarshalText lets stations decode straight from JSON strings and query params.
func (s *Station) UnmarshalText(b []byte) error {
	parsed, err := ParseStation(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
