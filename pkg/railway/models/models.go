package models

// Passenger is a registered traveller. A passenger may appear on many tickets.
type Passenger struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Ticket is a booked interval over a train's route. Tickets never change once committed.
type Ticket struct {
	ID              int         `json:"id"`
	TrainID         int         `json:"trainId"`
	From            Station     `json:"fromStation"`
	To              Station     `json:"toStation"`
	Passengers      []Passenger `json:"passengers"`
	BookingPersonID int         `json:"bookingPersonId"`
	Fare            int         `json:"totalFare"`
}

// Size is the number of seats the ticket occupies on every segment it covers.
func (t Ticket) Size() int {
	return len(t.Passengers)
}

// Train owns its route, schedule, capacity and the tickets booked against it.
type Train struct {
	ID        int       `json:"id"`
	Route     []Station `json:"route"`
	Departure TimeOfDay `json:"departureTime"`
	Seats     int       `json:"noOfSeats"`
	Tickets   []Ticket  `json:"bookedTickets,omitempty"`
}
