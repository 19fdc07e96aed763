package database

import (
	"database/sql"
	"time"
)

type Account struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
	Verified     bool
	OTP          sql.NullString
	VerifyToken  sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Doctor struct {
	Id             int
	AccountId      int
	Specialization string
	ContactDetails string
	// Username is populated by queries that join accounts.
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Availability is a doctor-declared open window on a calendar day.
// Date is "2006-01-02"; StartTime and EndTime are wall-clock "15:04"
// with no timezone. Both are fixed-width, so lexical ordering matches
// chronological ordering.
type Availability struct {
	Id        int
	DoctorId  int
	Date      string
	StartTime string
	EndTime   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Consultation struct {
	Id             int
	PatientId      int
	DoctorId       int
	AvailabilityId int
	Reason         string
	Description    string
	ImageRefs      []string
	Status         string
	StartTime      string
	EndTime        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConsultationDetail joins a consultation with its doctor profile, the
// doctor's and patient's account usernames, and the parent availability
// window. Window fields are null when the window has been deleted.
type ConsultationDetail struct {
	Consultation
	DoctorName     string
	Specialization string
	PatientName    string
	WindowDate     sql.NullString
	WindowStart    sql.NullString
	WindowEnd      sql.NullString
}

// Conversation holds the embedded message list as raw JSON. The pair
// (ParticipantA, ParticipantB) is stored normalized, ParticipantA < ParticipantB.
type Conversation struct {
	Id           int
	ExternalId   string
	ParticipantA int
	ParticipantB int
	Messages     []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is one row of the flat durable log mirroring a conversation entry.
type Message struct {
	Id             int
	ConversationId int
	SenderId       int
	ReceiverId     int
	SenderRole     string
	Body           string
	CreatedAt      time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
	OTP          string
	VerifyToken  string
}

type CreateDoctorParams struct {
	AccountId      int
	Specialization string
	ContactDetails string
}

type CreateAvailabilityParams struct {
	DoctorId  int
	Date      string
	StartTime string
	EndTime   string
}

type CreateConsultationParams struct {
	PatientId      int
	DoctorId       int
	AvailabilityId int
	Reason         string
	Description    string
	ImageRefs      []string
	StartTime      string
	EndTime        string
}

type CreateMessageParams struct {
	ConversationId int
	SenderId       int
	ReceiverId     int
	SenderRole     string
	Body           string
	CreatedAt      time.Time
}
