package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/types"
)

// SlotDuration is the fixed length of every bookable slot.
const SlotDuration = 30 * time.Minute

// SlotId combines the parent availability window's id with the slot's
// start instant, so a booking request carrying only the slot id can
// recover the window it belongs to.
func SlotId(availabilityId int, start time.Time) string {
	return fmt.Sprintf("%d-%d", availabilityId, start.UnixMilli())
}

// ParseSlotId recovers the availability window id and start instant
// from a composite slot id.
func ParseSlotId(id string) (int, time.Time, error) {
	availStr, startStr, ok := strings.Cut(id, "-")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("malformed slot id %q", id)
	}

	availabilityId, err := strconv.Atoi(availStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed slot id %q: %w", id, err)
	}

	millis, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed slot id %q: %w", id, err)
	}

	return availabilityId, time.UnixMilli(millis).UTC(), nil
}

// AvailableSlots derives the bookable slots for a doctor on one date:
// every 30-minute step inside each of the doctor's windows on that date,
// excluding partial trailing slots, slots not ending strictly after now,
// and slots fully contained in a non-Rejected consultation booked on the
// same window. An empty result is not an error.
func (s *Service) AvailableSlots(doctorId int, date string) ([]types.Slot, error) {
	if !validDate(date) {
		return nil, newValidationError("invalid date %q", date)
	}

	windows, err := s.db.ListAvailability(doctorId, date)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	consultations, err := s.db.ListConsultationsByDoctor(doctorId)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}

	now := s.now()
	slots := make([]types.Slot, 0)
	for _, window := range windows {
		windowSlots, err := generateSlots(window, consultations, now)
		if err != nil {
			return nil, err
		}

		slots = append(slots, windowSlots...)
	}

	// windows may overlap, so slots of different windows can interleave
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })

	return slots, nil
}

func generateSlots(window database.Availability, consultations []database.Consultation, now time.Time) ([]types.Slot, error) {
	start, err := combine(window.Date, window.StartTime)
	if err != nil {
		return nil, fmt.Errorf("window %d start: %w", window.Id, err)
	}
	end, err := combine(window.Date, window.EndTime)
	if err != nil {
		return nil, fmt.Errorf("window %d end: %w", window.Id, err)
	}

	var slots []types.Slot
	for t := start; !t.Add(SlotDuration).After(end); t = t.Add(SlotDuration) {
		slotEnd := t.Add(SlotDuration)
		if !slotEnd.After(now) {
			continue
		}

		taken, err := slotTaken(window, consultations, t, slotEnd)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		slots = append(slots, types.Slot{
			Id:             SlotId(window.Id, t),
			AvailabilityId: window.Id,
			Start:          t,
			End:            slotEnd,
		})
	}

	return slots, nil
}

// slotTaken reports whether the slot is fully contained in the requested
// range of a non-Rejected consultation on the same window. A Rejected
// consultation's time is treated as free again.
func slotTaken(window database.Availability, consultations []database.Consultation, slotStart, slotEnd time.Time) (bool, error) {
	for _, c := range consultations {
		if c.AvailabilityId != window.Id || c.Status == string(StatusRejected) {
			continue
		}

		cStart, err := combine(window.Date, c.StartTime)
		if err != nil {
			return false, fmt.Errorf("consultation %d start: %w", c.Id, err)
		}
		cEnd, err := combine(window.Date, c.EndTime)
		if err != nil {
			return false, fmt.Errorf("consultation %d end: %w", c.Id, err)
		}

		if !slotStart.Before(cStart) && !slotEnd.After(cEnd) {
			return true, nil
		}
	}

	return false, nil
}
