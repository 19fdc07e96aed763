package scheduling

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/careline/go-careline/internal/database"
)

// CreateAvailability records a new open window for a doctor. Windows of
// the same doctor are allowed to overlap each other.
func (s *Service) CreateAvailability(doctorId int, date, start, end string) (database.Availability, error) {
	if !validDate(date) {
		return database.Availability{}, newValidationError("invalid date %q", date)
	}
	if !validClock(start) || !validClock(end) {
		return database.Availability{}, newValidationError("invalid time range %q-%q", start, end)
	}
	if start >= end {
		return database.Availability{}, newValidationError("start time must be before end time")
	}

	if _, err := s.db.GetDoctorById(doctorId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Availability{}, fmt.Errorf("doctor %d: %w", doctorId, ErrNotFound)
		}
		return database.Availability{}, fmt.Errorf("get doctor: %w", err)
	}

	window, err := s.db.CreateAvailability(database.CreateAvailabilityParams{
		DoctorId:  doctorId,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return database.Availability{}, fmt.Errorf("create availability: %w", err)
	}

	return window, nil
}

// ListAvailability returns a doctor's windows ordered by date then start
// time, optionally narrowed to one date.
func (s *Service) ListAvailability(doctorId int, date string) ([]database.Availability, error) {
	if date != "" && !validDate(date) {
		return nil, newValidationError("invalid date %q", date)
	}

	if _, err := s.db.GetDoctorById(doctorId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("doctor %d: %w", doctorId, ErrNotFound)
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	windows, err := s.db.ListAvailability(doctorId, date)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	return windows, nil
}

// DeleteAvailability removes a window unconditionally. Consultations
// referencing the window are left in place; reads that join through it
// surface the window as unknown.
func (s *Service) DeleteAvailability(availabilityId int) error {
	if err := s.db.DeleteAvailability(availabilityId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("availability %d: %w", availabilityId, ErrNotFound)
		}
		return fmt.Errorf("delete availability: %w", err)
	}

	return nil
}
