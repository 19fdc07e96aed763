package types

import (
	"time"
)

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         string    `json:"role,omitempty"`
	Password     string    `json:"-"`
	Verified     bool      `json:"verified,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Session is the authenticated caller's identity as carried in the JWT.
// DoctorId is zero for patients.
type Session struct {
	UserId   int
	Role     string
	DoctorId int
}

type Doctor struct {
	Id             int    `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	ContactDetails string `json:"contact_details,omitempty"`
}

type Availability struct {
	Id        int    `json:"id"`
	DoctorId  int    `json:"doctor_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type Slot struct {
	Id             string    `json:"id"`
	AvailabilityId int       `json:"availability_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

type Consultation struct {
	Id             int      `json:"id"`
	PatientId      int      `json:"patient_id"`
	DoctorId       int      `json:"doctor_id"`
	AvailabilityId int      `json:"availability_id"`
	Reason         string   `json:"reason"`
	Description    string   `json:"description"`
	ImageRefs      []string `json:"image_refs"`
	Status         string   `json:"status"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
}

// ConsultationDetail is the joined projection shown to patients and doctors.
// Window is nil when the referenced availability window has since been deleted.
type ConsultationDetail struct {
	Consultation
	DoctorName     string        `json:"doctor_name"`
	Specialization string        `json:"specialization"`
	PatientName    string        `json:"patient_name,omitempty"`
	Window         *Availability `json:"window,omitempty"`
}

type ChatPeer struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

type ChatMessage struct {
	ConversationId string    `json:"conversation_id"`
	SenderId       int       `json:"sender_id"`
	ReceiverId     int       `json:"receiver_id"`
	Body           string    `json:"body"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatHistory partitions a conversation's messages relative to the caller.
type ChatHistory struct {
	ConversationId string        `json:"conversation_id,omitempty"`
	Sent           []ChatMessage `json:"sent"`
	Received       []ChatMessage `json:"received"`
}
