package model

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Slot layout: zero-padded "HH:MM-HH:MM". Lexicographic order on these
// strings equals chronological order, which availability sorting relies on.
const (
	slotTimeLayout = "15:04"
	SlotDuration   = time.Hour
)

type Doctor struct {
	Base
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Specialty string `db:"specialty" json:"specialty"`
	// AvailableSlots is the recurring set of time-of-day windows the doctor
	// offers every day, e.g. "09:00-10:00". May be empty.
	AvailableSlots pq.StringArray `db:"available_slots" json:"available_slots"`
	PasswordHash   string         `db:"password_hash" json:"-"`
}

// SlotForTime maps an appointment start time to its canonical slot string.
// Bookings that don't start exactly on a canonical slot boundary produce a
// string that matches none of the doctor's slots; they neither free nor
// block canonical slots.
func SlotForTime(t time.Time) string {
	return fmt.Sprintf("%s-%s", t.Format(slotTimeLayout), t.Add(SlotDuration).Format(slotTimeLayout))
}

// SlotStart parses the start component of a slot string. Returns an error
// for malformed slots.
func SlotStart(slot string) (time.Time, error) {
	if len(slot) != 11 || slot[5] != '-' {
		return time.Time{}, fmt.Errorf("malformed slot %q", slot)
	}
	return time.Parse(slotTimeLayout, slot[:5])
}

type CreateDoctorRequest struct {
	Name           string   `json:"name" binding:"required"`
	Email          string   `json:"email" binding:"required,email"`
	Phone          string   `json:"phone" binding:"required"`
	Specialty      string   `json:"specialty" binding:"required"`
	AvailableSlots []string `json:"available_slots"`
	Password       string   `json:"password" binding:"required,min=8"`
}

type UpdateDoctorRequest struct {
	Name           *string   `json:"name"`
	Phone          *string   `json:"phone"`
	Specialty      *string   `json:"specialty"`
	AvailableSlots *[]string `json:"available_slots"`
}

// DoctorFilters holds the optional doctor search criteria. Period is "AM"
// or "PM" and matches doctors with at least one slot starting in that half
// of the day.
type DoctorFilters struct {
	Name      string `form:"name"`
	Specialty string `form:"specialty"`
	Period    string `form:"period" binding:"omitempty,oneof=AM PM am pm"`
}
