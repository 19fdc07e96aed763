package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/push"
	"github.com/careline/go-careline/internal/scheduling"
	"github.com/careline/go-careline/internal/stats"
	"github.com/careline/go-careline/internal/types"
	"github.com/gorilla/websocket"
	"github.com/lib/pq"
)

type RegisterRequest struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
	Contact        string `json:"contact"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type CreateAvailabilityRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ConsultationRequest struct {
	DoctorId       int      `json:"doctor_id"`
	AvailabilityId int      `json:"availability_id"`
	SlotId         string   `json:"slot_id"`
	Reason         string   `json:"reason"`
	Description    string   `json:"description"`
	Images         []string `json:"images"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
}

type UpdateStatusRequest struct {
	Id     int    `json:"id"`
	Status string `json:"status"`
}

type SendMessageRequest struct {
	CounterpartId int    `json:"counterpart_id"`
	Body          string `json:"body"`
}

type LoginResponse struct {
	types.User
	DoctorId int `json:"doctor_id,omitempty"`
}

func (s *CarelineApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *CarelineApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *CarelineApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestErrorMsg("email, username and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Role != types.RoleDoctor && req.Role != types.RolePatient {
		errResp := NewBadRequestErrorMsg("invalid role")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Role == types.RoleDoctor && (req.Specialization == "" || req.Contact == "") {
		errResp := NewBadRequestErrorMsg("specialization and contact are required for doctors")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
		Role:         req.Role,
	}

	switch req.Role {
	case types.RolePatient:
		otp, err := generateOTP()
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		params.OTP = otp
	case types.RoleDoctor:
		token, err := s.createVerifyToken(req.Email)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		params.VerifyToken = token
	}

	newAccount, err := s.db.CreateAccount(params)
	if err != nil {
		var errResp *ApiError
		if isUniqueViolation(err) {
			errResp = NewConflictError("email or username already used")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	switch req.Role {
	case types.RoleDoctor:
		if _, err := s.db.CreateDoctor(database.CreateDoctorParams{
			AccountId:      newAccount.Id,
			Specialization: req.Specialization,
			ContactDetails: req.Contact,
		}); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if err := s.mailer.Send(req.Email, "Doctor Email Verification",
			"Open /api/auth/verify-email?token="+params.VerifyToken+" to verify your email."); err != nil {
			s.log.Println("send verification mail:", err)
		}
	case types.RolePatient:
		if err := s.mailer.Send(req.Email, "Patient Email Verification",
			"Your OTP for email verification is: "+params.OTP); err != nil {
			s.log.Println("send otp mail:", err)
		}
	}

	s.writeJson(w, http.StatusCreated, types.User{
		Id:           newAccount.Id,
		Username:     newAccount.Username,
		EmailAddress: newAccount.EmailAddress,
		Role:         newAccount.Role,
		CreatedAt:    newAccount.CreatedAt,
		UpdatedAt:    newAccount.UpdatedAt,
	})
}

func (s *CarelineApp) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var req VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Email == "" || req.OTP == "" {
		errResp := NewBadRequestErrorMsg("email and otp are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountByEmail(req.Email)
	if err != nil || account.Role != types.RolePatient {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !account.OTP.Valid || account.OTP.String != req.OTP {
		errResp := NewBadRequestErrorMsg("invalid otp")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.MarkAccountVerified(account.Id); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"message": "email verified"})
}

func (s *CarelineApp) verifyEmail(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		errResp := NewBadRequestErrorMsg("verification token is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	email, err := s.parseVerifyToken(tokenString)
	if err != nil {
		s.log.Println("parse verify token:", err)
		errResp := NewBadRequestErrorMsg("invalid verification token")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountByEmail(email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// the stored token is cleared on verification, making the link single use
	if !account.VerifyToken.Valid || account.VerifyToken.String != tokenString {
		errResp := NewBadRequestErrorMsg("invalid verification token")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.MarkAccountVerified(account.Id); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"message": "email verified"})
}

func (s *CarelineApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestErrorMsg("email and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(account.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !account.Verified {
		errResp := NewBadRequestErrorMsg("please verify your email before logging in")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sess := types.Session{UserId: account.Id, Role: account.Role}
	if account.Role == types.RoleDoctor {
		doctor, err := s.db.GetDoctorByAccountId(account.Id)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		sess.DoctorId = doctor.Id
	}

	token, err := s.createJwtForSession(sess, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, LoginResponse{
		User: types.User{
			Id:           account.Id,
			Username:     account.Username,
			EmailAddress: account.EmailAddress,
			Role:         account.Role,
			Verified:     account.Verified,
		},
		DoctorId: sess.DoctorId,
	})
}

func (s *CarelineApp) session(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountById(sess.UserId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.User{
		Id:           account.Id,
		Username:     account.Username,
		EmailAddress: account.EmailAddress,
		Role:         account.Role,
		Verified:     account.Verified,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	})
}

func (s *CarelineApp) logout(w http.ResponseWriter, _ *http.Request) {
	// overwrite the cookie with an already-expired empty token
	http.SetCookie(w, createJwtCookie("", -time.Hour))
	w.WriteHeader(http.StatusNoContent)
}

func (s *CarelineApp) getDoctors(w http.ResponseWriter, _ *http.Request) {
	doctors, err := s.db.ListDoctors()
	if err != nil {
		s.log.Println("list doctors:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	out := make([]types.Doctor, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, types.Doctor{
			Id:             d.Id,
			Name:           d.Username,
			Specialization: d.Specialization,
		})
	}

	s.writeJson(w, http.StatusOK, out)
}

func (s *CarelineApp) createAvailability(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	window, err := s.scheduler.CreateAvailability(sess.DoctorId, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("create availability:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Availability{
		Id:        window.Id,
		DoctorId:  window.DoctorId,
		Date:      window.Date,
		StartTime: window.StartTime,
		EndTime:   window.EndTime,
	})
}

func (s *CarelineApp) getAvailability(w http.ResponseWriter, r *http.Request) {
	doctorId, err := strconv.Atoi(r.URL.Query().Get("doctor_id"))
	if err != nil {
		errResp := NewBadRequestErrorMsg("doctor_id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	windows, err := s.scheduler.ListAvailability(doctorId, r.URL.Query().Get("date"))
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("list availability:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	out := make([]types.Availability, 0, len(windows))
	for _, window := range windows {
		out = append(out, types.Availability{
			Id:        window.Id,
			DoctorId:  window.DoctorId,
			Date:      window.Date,
			StartTime: window.StartTime,
			EndTime:   window.EndTime,
		})
	}

	s.writeJson(w, http.StatusOK, out)
}

func (s *CarelineApp) deleteAvailability(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	availabilityId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestErrorMsg("id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// scope the lookup to the caller so doctors cannot delete each
	// other's windows
	if _, err := s.db.GetAvailability(sess.DoctorId, availabilityId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.scheduler.DeleteAvailability(availabilityId); err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("delete availability:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CarelineApp) getSlots(w http.ResponseWriter, r *http.Request) {
	doctorId, err := strconv.Atoi(r.URL.Query().Get("doctor_id"))
	if err != nil {
		errResp := NewBadRequestErrorMsg("doctor_id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	slots, err := s.scheduler.AvailableSlots(doctorId, r.URL.Query().Get("date"))
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("list slots:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, slots)
}

func (s *CarelineApp) requestConsultation(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req ConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// a booking may reference only the slot id; recover the parent
	// window from it
	if req.AvailabilityId == 0 && req.SlotId != "" {
		availabilityId, _, err := scheduling.ParseSlotId(req.SlotId)
		if err != nil {
			errResp := NewBadRequestErrorMsg("invalid slot id")
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		req.AvailabilityId = availabilityId
	}

	consultation, err := s.scheduler.RequestConsultation(scheduling.ConsultationRequest{
		PatientId:      sess.UserId,
		DoctorId:       req.DoctorId,
		AvailabilityId: req.AvailabilityId,
		Reason:         req.Reason,
		Description:    req.Description,
		ImageRefs:      req.Images,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	})
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("request consultation:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.ConsultationsRequested)

	s.writeJson(w, http.StatusCreated, types.Consultation{
		Id:             consultation.Id,
		PatientId:      consultation.PatientId,
		DoctorId:       consultation.DoctorId,
		AvailabilityId: consultation.AvailabilityId,
		Reason:         consultation.Reason,
		Description:    consultation.Description,
		ImageRefs:      consultation.ImageRefs,
		Status:         consultation.Status,
		StartTime:      consultation.StartTime,
		EndTime:        consultation.EndTime,
	})
}

func (s *CarelineApp) getPatientConsultations(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	details, err := s.scheduler.PatientConsultations(sess.UserId)
	if err != nil {
		s.log.Println("patient consultations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, details)
}

func (s *CarelineApp) getDoctorConsultations(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	details, err := s.scheduler.DoctorConsultations(sess.DoctorId)
	if err != nil {
		s.log.Println("doctor consultations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, details)
}

func (s *CarelineApp) updateConsultationStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	consultation, err := s.scheduler.TransitionStatus(sess.DoctorId, req.Id, scheduling.Status(req.Status))
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("update consultation status:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Consultation{
		Id:             consultation.Id,
		PatientId:      consultation.PatientId,
		DoctorId:       consultation.DoctorId,
		AvailabilityId: consultation.AvailabilityId,
		Status:         consultation.Status,
		StartTime:      consultation.StartTime,
		EndTime:        consultation.EndTime,
	})
}

func (s *CarelineApp) getDoctorsForChat(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	peers, err := s.scheduler.AcceptedDoctors(sess.UserId)
	if err != nil {
		s.log.Println("accepted doctors:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, peers)
}

func (s *CarelineApp) getPatientsForChat(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	peers, err := s.scheduler.AcceptedPatients(sess.DoctorId)
	if err != nil {
		s.log.Println("accepted patients:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, peers)
}

// callerId returns the role-dependent identifier the messaging resolver
// expects: doctors contribute their profile id, patients their account id.
func callerId(sess types.Session) int {
	if sess.Role == types.RoleDoctor {
		return sess.DoctorId
	}
	return sess.UserId
}

func (s *CarelineApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.CounterpartId == 0 {
		errResp := NewBadRequestErrorMsg("counterpart_id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.messages.Send(sess.Role, callerId(sess), req.CounterpartId, req.Body)
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("send message:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.MessagesSent)
	s.ps.Deliver(msg.ReceiverId, &push.ServerMessage{
		BaseMessage: push.BaseMessage{Timestamp: msg.Timestamp},
		Message:     &msg,
	})

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *CarelineApp) getMessages(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	counterpartId, err := strconv.Atoi(r.URL.Query().Get("counterpart_id"))
	if err != nil {
		errResp := NewBadRequestErrorMsg("counterpart_id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	history, err := s.messages.History(sess.Role, callerId(sess), counterpartId)
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("get messages:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, history)
}

func (s *CarelineApp) getMessageLog(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	counterpartId, err := strconv.Atoi(r.URL.Query().Get("counterpart_id"))
	if err != nil {
		errResp := NewBadRequestErrorMsg("counterpart_id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var limit int
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	messages, err := s.messages.MessageLog(sess.Role, callerId(sess), counterpartId, limit)
	if err != nil {
		errResp := mapDomainError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("get message log:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *CarelineApp) serveWs(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := push.NewClient(sess, conn, s.ps, s.log)

	s.ps.RegisterClient(client)
	go client.Write()
	go client.Read()
}
