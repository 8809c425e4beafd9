package fulfillment

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/appointment-scheduler/internal/schedule"
)

// SessionKeyBookingMap is the session attribute holding the encoded BookingMap.
const SessionKeyBookingMap = "bookingMap"

// BookingMap caches the free half-hour slots per date (YYYY-MM-DD) for the
// length of one conversation.
type BookingMap map[string][]schedule.TimeOfDay

// DecodeBookingMap parses the session attribute form. An empty value is an
// empty map.
func DecodeBookingMap(raw string) (BookingMap, error) {
	m := BookingMap{}
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return BookingMap{}, fmt.Errorf("fulfillment: decode booking map: %w", err)
	}
	return m, nil
}

// Encode renders the map as a JSON object of "HH:MM" lists.
func (m BookingMap) Encode() (string, error) {
	if m == nil {
		m = BookingMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("fulfillment: encode booking map: %w", err)
	}
	return string(data), nil
}

// Lookup returns the cached free slots for date.
func (m BookingMap) Lookup(date string) ([]schedule.TimeOfDay, bool) {
	slots, ok := m[date]
	return slots, ok
}

// Prune removes every entry whose key is not a YYYY-MM-DD date or whose slots
// could not have been computed for that date: each must be a half-hour start
// inside the day's business hours, in strictly ascending order. It returns the
// removed keys in sorted order.
func (m BookingMap) Prune() []string {
	var dropped []string
	for key, slots := range m {
		day, err := schedule.ParseDate(key)
		if err != nil || !fitsDay(day, slots) {
			dropped = append(dropped, key)
			delete(m, key)
		}
	}
	sort.Strings(dropped)
	return dropped
}

func fitsDay(day time.Time, slots []schedule.TimeOfDay) bool {
	hours, open := schedule.HoursFor(day)
	if !open {
		return len(slots) == 0
	}
	for i, s := range slots {
		if !s.OnGrid() || s < hours.Open || s >= hours.Close {
			return false
		}
		if i > 0 && s <= slots[i-1] {
			return false
		}
	}
	return true
}
