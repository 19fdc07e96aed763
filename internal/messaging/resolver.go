package messaging

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/careline/go-careline/internal/types"
)

// ErrDoctorNotFound is returned when a role-implied doctor profile
// lookup yields nothing.
var ErrDoctorNotFound = errors.New("doctor not found")

// ResolvePair normalizes both ends of a chat exchange to account
// identities. Callers address a counterpart by a role-dependent id: a
// patient addresses a doctor by the doctor profile id, while a doctor
// addresses a patient by the account id directly. A doctor's own
// contributed identity is likewise their profile id, resolved here to
// the backing account.
func (s *Service) ResolvePair(callerRole string, callerId, counterpartId int) (senderId, receiverId int, err error) {
	switch callerRole {
	case types.RoleDoctor:
		senderId, err = s.accountIdForDoctor(callerId)
		if err != nil {
			return 0, 0, err
		}
		receiverId = counterpartId
	case types.RolePatient:
		senderId = callerId
		receiverId, err = s.accountIdForDoctor(counterpartId)
		if err != nil {
			return 0, 0, err
		}
	default:
		return 0, 0, fmt.Errorf("invalid role %q", callerRole)
	}

	return senderId, receiverId, nil
}

func (s *Service) accountIdForDoctor(doctorId int) (int, error) {
	doctor, err := s.db.GetDoctorById(doctorId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrDoctorNotFound
		}
		return 0, fmt.Errorf("get doctor %d: %w", doctorId, err)
	}

	return doctor.AccountId, nil
}

// NormalizePair orders the two account ids ascending. Conversations key
// on the normalized pair, so A→B and B→A address the same conversation.
func NormalizePair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
