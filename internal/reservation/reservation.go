package reservation

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	minGuests = 1
	maxGuests = 50
)

var ErrInvalid = errors.New("invalid reservation")

type Request struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Seating string `json:"type"`
	Guests  int    `json:"guests"`
}

// FieldErrors maps a request field to what is wrong with it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ErrInvalid.Error() + ": " + strings.Join(keys, ", ")
}

func (fe FieldErrors) Unwrap() error { return ErrInvalid }

func (r *Request) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Seating = strings.TrimSpace(r.Seating)
}

func (r Request) Validate() error {
	fe := FieldErrors{}

	if r.Name == "" {
		fe["name"] = "required"
	}
	if r.Phone == "" {
		fe["phone"] = "required"
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		fe["date"] = "expected YYYY-MM-DD"
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		fe["time"] = "expected HH:MM"
	}
	if r.Seating == "" {
		fe["type"] = "required"
	}
	if r.Guests < minGuests || r.Guests > maxGuests {
		fe["guests"] = "must be between " + strconv.Itoa(minGuests) + " and " + strconv.Itoa(maxGuests)
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

func (r Request) Message() string {
	var b strings.Builder
	b.WriteString("*New Reservation Request*\n\n")
	b.WriteString("Name: " + r.Name + "\n")
	b.WriteString("Phone: " + r.Phone + "\n")
	b.WriteString("Date: " + r.Date + "\n")
	b.WriteString("Time: " + r.Time + "\n")
	b.WriteString("Type: " + r.Seating + "\n")
	b.WriteString("Guests: " + strconv.Itoa(r.Guests) + "\n")
	b.WriteString("\nPlease confirm availability.")
	return b.String()
}
