package scheduling

import (
	"log"
	"time"

	"github.com/careline/go-careline/internal/database"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Service struct {
	log *log.Logger
	db  database.CarelineRepository
	now func() time.Time
}

func NewService(logger *log.Logger, db database.CarelineRepository) *Service {
	return &Service{
		log: logger,
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// combine builds the instant for a wall-clock time on a calendar day.
// Wall-clock values carry no timezone and are interpreted as UTC.
func combine(date, clock string) (time.Time, error) {
	return time.Parse(dateLayout+" "+timeLayout, date+" "+clock)
}

func validDate(date string) bool {
	if len(date) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, date)
	return err == nil
}

// validClock requires the fixed-width "15:04" form. time.Parse alone
// would also accept one-digit hours, which breaks the lexical ordering
// the window and overlap comparisons rely on.
func validClock(clock string) bool {
	if len(clock) != len(timeLayout) {
		return false
	}
	_, err := time.Parse(timeLayout, clock)
	return err == nil
}
