package scheduling

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/types"
)

type Status string

const (
	// Status values are stored verbatim; the mixed casing is part of the
	// persisted contract.
	StatusPending   Status = "pending"
	StatusAccepted  Status = "Accepted"
	StatusRejected  Status = "Rejected"
	StatusCompleted Status = "Completed"
)

// transitions is the consultation status machine. Rejected and Completed
// are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusCompleted},
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ConsultationRequest struct {
	PatientId      int
	DoctorId       int
	AvailabilityId int
	Reason         string
	Description    string
	ImageRefs      []string
	StartTime      string
	EndTime        string
}

// RequestConsultation books a pending consultation against one of the
// doctor's availability windows. The requested range must lie inside the
// window; overlap with existing non-Rejected consultations on the same
// window is refused with ErrConflict at insert time.
func (s *Service) RequestConsultation(req ConsultationRequest) (database.Consultation, error) {
	if req.Reason == "" || req.Description == "" {
		return database.Consultation{}, newValidationError("reason and description are required")
	}
	if len(req.ImageRefs) == 0 {
		return database.Consultation{}, newValidationError("at least one image is required")
	}
	if req.StartTime == "" || req.EndTime == "" {
		return database.Consultation{}, newValidationError("start time and end time are required")
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		return database.Consultation{}, newValidationError("invalid time range %q-%q", req.StartTime, req.EndTime)
	}

	window, err := s.db.GetAvailability(req.DoctorId, req.AvailabilityId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Consultation{}, fmt.Errorf("availability %d: %w", req.AvailabilityId, ErrNotFound)
		}
		return database.Consultation{}, fmt.Errorf("get availability: %w", err)
	}

	if req.StartTime < window.StartTime || req.EndTime > window.EndTime {
		return database.Consultation{}, ErrOutOfRange
	}

	consultation, err := s.db.CreateConsultation(database.CreateConsultationParams{
		PatientId:      req.PatientId,
		DoctorId:       req.DoctorId,
		AvailabilityId: req.AvailabilityId,
		Reason:         req.Reason,
		Description:    req.Description,
		ImageRefs:      req.ImageRefs,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	})
	if err != nil {
		// the conditional insert returns no row when a non-Rejected
		// consultation already covers part of the requested range
		if errors.Is(err, sql.ErrNoRows) {
			return database.Consultation{}, ErrConflict
		}
		return database.Consultation{}, fmt.Errorf("create consultation: %w", err)
	}

	return consultation, nil
}

// TransitionStatus applies a status change on behalf of the owning
// doctor. The final update is a compare-and-set on the current status,
// so a concurrent transition cannot be overwritten.
func (s *Service) TransitionStatus(doctorId, consultationId int, to Status) (database.Consultation, error) {
	if !ValidStatus(to) {
		return database.Consultation{}, &InvalidTransitionError{To: to}
	}

	consultation, err := s.db.GetConsultationById(consultationId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Consultation{}, fmt.Errorf("consultation %d: %w", consultationId, ErrNotFound)
		}
		return database.Consultation{}, fmt.Errorf("get consultation: %w", err)
	}

	if consultation.DoctorId != doctorId {
		return database.Consultation{}, ErrNotOwner
	}

	from := Status(consultation.Status)
	if !CanTransition(from, to) {
		return database.Consultation{}, &InvalidTransitionError{From: from, To: to}
	}

	if err := s.db.UpdateConsultationStatus(consultationId, string(from), string(to)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// lost the compare-and-set; the status moved underneath us
			return database.Consultation{}, &InvalidTransitionError{From: from, To: to}
		}
		return database.Consultation{}, fmt.Errorf("update consultation status: %w", err)
	}

	consultation.Status = string(to)
	return consultation, nil
}

// PatientConsultations returns the patient's consultations joined with
// doctor and window details for display.
func (s *Service) PatientConsultations(patientId int) ([]types.ConsultationDetail, error) {
	details, err := s.db.ListPatientConsultations(patientId)
	if err != nil {
		return nil, fmt.Errorf("list patient consultations: %w", err)
	}

	return toConsultationDetails(details), nil
}

// DoctorConsultations returns the consultations requested of a doctor.
func (s *Service) DoctorConsultations(doctorId int) ([]types.ConsultationDetail, error) {
	details, err := s.db.ListDoctorConsultations(doctorId)
	if err != nil {
		return nil, fmt.Errorf("list doctor consultations: %w", err)
	}

	return toConsultationDetails(details), nil
}

// AcceptedDoctors lists the doctors who accepted a consultation from the
// patient, making them eligible chat counterparts.
func (s *Service) AcceptedDoctors(patientId int) ([]types.ChatPeer, error) {
	doctors, err := s.db.ListAcceptedDoctors(patientId)
	if err != nil {
		return nil, fmt.Errorf("list accepted doctors: %w", err)
	}

	peers := make([]types.ChatPeer, 0, len(doctors))
	for _, d := range doctors {
		peers = append(peers, types.ChatPeer{Id: d.Id, Name: d.Username})
	}

	return peers, nil
}

// AcceptedPatients lists the patients whose consultations the doctor
// accepted.
func (s *Service) AcceptedPatients(doctorId int) ([]types.ChatPeer, error) {
	patients, err := s.db.ListAcceptedPatients(doctorId)
	if err != nil {
		return nil, fmt.Errorf("list accepted patients: %w", err)
	}

	peers := make([]types.ChatPeer, 0, len(patients))
	for _, p := range patients {
		peers = append(peers, types.ChatPeer{Id: p.Id, Name: p.Username})
	}

	return peers, nil
}

func toConsultationDetails(details []database.ConsultationDetail) []types.ConsultationDetail {
	out := make([]types.ConsultationDetail, 0, len(details))
	for _, cd := range details {
		detail := types.ConsultationDetail{
			Consultation: types.Consultation{
				Id:             cd.Id,
				PatientId:      cd.PatientId,
				DoctorId:       cd.DoctorId,
				AvailabilityId: cd.AvailabilityId,
				Status:         cd.Status,
				StartTime:      cd.StartTime,
				EndTime:        cd.EndTime,
			},
			DoctorName:     cd.DoctorName,
			Specialization: cd.Specialization,
			PatientName:    cd.PatientName,
		}

		// the parent window may have been deleted since booking
		if cd.WindowDate.Valid {
			detail.Window = &types.Availability{
				Id:        cd.AvailabilityId,
				DoctorId:  cd.DoctorId,
				Date:      cd.WindowDate.String,
				StartTime: cd.WindowStart.String,
				EndTime:   cd.WindowEnd.String,
			}
		}

		out = append(out, detail)
	}

	return out
}
