package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audience restricts who an event is aimed at. The values match the strings
// stored in existing event documents, so they unmarshal unchanged.
type Audience string

const (
	AudienceAll    Audience = "All Welcome"
	AudienceMale   Audience = "Male"
	AudienceFemale Audience = "Female"
)

// Event is a user-created listing. The JSON field names match the on-disk
// document layout of earlier releases so existing events.json files still load.
//
// Name, MinAge and MaxAge are not validated here; the form that builds an
// Event owns validation, the store accepts what it is given.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"eventName"`
	DateTime    time.Time `json:"eventDateTime"`
	Description string    `json:"eventDescription"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	Audience    Audience  `json:"gender"`
	MinAge      int       `json:"minAge"`
	MaxAge      int       `json:"maxAge"`
	ImageRef    string    `json:"image"`
}
