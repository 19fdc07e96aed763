package database

import (
	"github.com/stretchr/testify/mock"
)

type MockCarelineRepository struct {
	mock.Mock
}

func (m *MockCarelineRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockCarelineRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCarelineRepository) GetAccountById(accountId int) (Account, error) {
	args := m.Called(accountId)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCarelineRepository) GetAccountByEmail(email string) (Account, error) {
	args := m.Called(email)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCarelineRepository) MarkAccountVerified(accountId int) error {
	args := m.Called(accountId)
	return args.Error(0)
}
func (m *MockCarelineRepository) CreateDoctor(params CreateDoctorParams) (Doctor, error) {
	args := m.Called(params)
	return args.Get(0).(Doctor), args.Error(1)
}
func (m *MockCarelineRepository) GetDoctorById(doctorId int) (Doctor, error) {
	args := m.Called(doctorId)
	return args.Get(0).(Doctor), args.Error(1)
}
func (m *MockCarelineRepository) GetDoctorByAccountId(accountId int) (Doctor, error) {
	args := m.Called(accountId)
	return args.Get(0).(Doctor), args.Error(1)
}
func (m *MockCarelineRepository) ListDoctors() ([]Doctor, error) {
	args := m.Called()
	return args.Get(0).([]Doctor), args.Error(1)
}
func (m *MockCarelineRepository) CreateAvailability(params CreateAvailabilityParams) (Availability, error) {
	args := m.Called(params)
	return args.Get(0).(Availability), args.Error(1)
}
func (m *MockCarelineRepository) GetAvailability(doctorId, availabilityId int) (Availability, error) {
	args := m.Called(doctorId, availabilityId)
	return args.Get(0).(Availability), args.Error(1)
}
func (m *MockCarelineRepository) ListAvailability(doctorId int, date string) ([]Availability, error) {
	args := m.Called(doctorId, date)
	return args.Get(0).([]Availability), args.Error(1)
}
func (m *MockCarelineRepository) DeleteAvailability(availabilityId int) error {
	args := m.Called(availabilityId)
	return args.Error(0)
}
func (m *MockCarelineRepository) CreateConsultation(params CreateConsultationParams) (Consultation, error) {
	args := m.Called(params)
	return args.Get(0).(Consultation), args.Error(1)
}
func (m *MockCarelineRepository) GetConsultationById(consultationId int) (Consultation, error) {
	args := m.Called(consultationId)
	return args.Get(0).(Consultation), args.Error(1)
}
func (m *MockCarelineRepository) ListConsultationsByDoctor(doctorId int) ([]Consultation, error) {
	args := m.Called(doctorId)
	return args.Get(0).([]Consultation), args.Error(1)
}
func (m *MockCarelineRepository) UpdateConsultationStatus(consultationId int, from, to string) error {
	args := m.Called(consultationId, from, to)
	return args.Error(0)
}
func (m *MockCarelineRepository) ListPatientConsultations(patientId int) ([]ConsultationDetail, error) {
	args := m.Called(patientId)
	return args.Get(0).([]ConsultationDetail), args.Error(1)
}
func (m *MockCarelineRepository) ListDoctorConsultations(doctorId int) ([]ConsultationDetail, error) {
	args := m.Called(doctorId)
	return args.Get(0).([]ConsultationDetail), args.Error(1)
}
func (m *MockCarelineRepository) ListAcceptedDoctors(patientId int) ([]Doctor, error) {
	args := m.Called(patientId)
	return args.Get(0).([]Doctor), args.Error(1)
}
func (m *MockCarelineRepository) ListAcceptedPatients(doctorId int) ([]Account, error) {
	args := m.Called(doctorId)
	return args.Get(0).([]Account), args.Error(1)
}
func (m *MockCarelineRepository) AppendConversationMessage(participantA, participantB int, externalId string, entry []byte) (Conversation, error) {
	args := m.Called(participantA, participantB, externalId, entry)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockCarelineRepository) GetConversation(participantA, participantB int) (Conversation, error) {
	args := m.Called(participantA, participantB)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockCarelineRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockCarelineRepository) ListMessageLog(conversationId, limit int) ([]Message, error) {
	args := m.Called(conversationId, limit)
	return args.Get(0).([]Message), args.Error(1)
}
