package database

type CarelineRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (Account, error)
	GetAccountById(accountId int) (Account, error)
	GetAccountByEmail(email string) (Account, error)
	MarkAccountVerified(accountId int) error
	CreateDoctor(params CreateDoctorParams) (Doctor, error)
	GetDoctorById(doctorId int) (Doctor, error)
	GetDoctorByAccountId(accountId int) (Doctor, error)
	ListDoctors() ([]Doctor, error)
	CreateAvailability(params CreateAvailabilityParams) (Availability, error)
	GetAvailability(doctorId, availabilityId int) (Availability, error)
	ListAvailability(doctorId int, date string) ([]Availability, error)
	DeleteAvailability(availabilityId int) error
	CreateConsultation(params CreateConsultationParams) (Consultation, error)
	GetConsultationById(consultationId int) (Consultation, error)
	ListConsultationsByDoctor(doctorId int) ([]Consultation, error)
	UpdateConsultationStatus(consultationId int, from, to string) error
	ListPatientConsultations(patientId int) ([]ConsultationDetail, error)
	ListDoctorConsultations(doctorId int) ([]ConsultationDetail, error)
	ListAcceptedDoctors(patientId int) ([]Doctor, error)
	ListAcceptedPatients(doctorId int) ([]Account, error)
	AppendConversationMessage(participantA, participantB int, externalId string, entry []byte) (Conversation, error)
	GetConversation(participantA, participantB int) (Conversation, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	ListMessageLog(conversationId, limit int) ([]Message, error)
}
