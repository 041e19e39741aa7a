// Package venues holds the venue reference catalogue. Venues are immutable
// reference data shared by the Events and Tickets modules; capacity is fixed
// and determines how many seats the Tickets module releases per event
package venues

// Venue is a read-only reference entry
type Venue struct {
	ID       string
	Name     string
	Capacity int
}

var catalogue = []Venue{
	{ID: "first-direct-arena", Name: "First Direct Arena", Capacity: 13500},
	{ID: "utilita-arena-sheffield", Name: "Utilita Arena Sheffield", Capacity: 13600},
	{ID: "o2-academy-leeds", Name: "O2 Academy Leeds", Capacity: 2300},
	{ID: "leadmill-sheffield", Name: "The Leadmill", Capacity: 900},
	{ID: "brudenell-social-club", Name: "Brudenell Social Club", Capacity: 400},
}

// All returns the full catalogue
func All() []Venue {
	out := make([]Venue, len(catalogue))
	copy(out, catalogue)
	return out
}

// Get looks up a venue by id
func Get(id string) (Venue, bool) {
	for _, v := range catalogue {
		if v.ID == id {
			return v, true
		}
	}
	return Venue{}, false
}
