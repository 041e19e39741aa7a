package domain

// User is the Tickets module's projection of an identity, kept current by
// UserUpserted and UserRegistered messages. Pure upsert, no counters
type User struct {
	ID       string
	FullName string
	Email    string
}
