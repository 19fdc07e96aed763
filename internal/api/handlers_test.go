package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careline/go-careline/internal/config"
	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/messaging"
	"github.com/careline/go-careline/internal/push"
	"github.com/careline/go-careline/internal/scheduling"
	"github.com/careline/go-careline/internal/stats"
	"github.com/careline/go-careline/internal/testutil"
	"github.com/careline/go-careline/internal/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestApp(t *testing.T, mockRepo *database.MockCarelineRepository, mockStats *stats.MockStatsUpdater) *CarelineApp {
	logger := testutil.TestLogger(t)
	scheduler := scheduling.NewService(logger, mockRepo)
	messages := messaging.NewService(logger, mockRepo)
	ps := push.NewPushServer(logger, messages, mockStats)
	cfg := &config.Config{
		ServerAddr: "localhost:8000",
		SigningKey: []byte("test-signing-key"),
	}

	return NewCarelineApp(http.NewServeMux(), logger, ps, mockRepo, scheduler, messages, mockStats, NewLogMailer(logger), cfg)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	buf := &bytes.Buffer{}
	err := json.NewEncoder(buf).Encode(v)
	assert.NoError(t, err)
	return buf
}

func withSession(req *http.Request, sess types.Session) *http.Request {
	return req.WithContext(WithSession(req.Context(), sess))
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name: "successful health check",
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCarelineRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("Ping").Return(tc.mockErr).Once()
			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			app.healthCheck(rr, req)

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code)
			} else {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "OK", rr.Body.String())
			}
		})
	}
}

func TestCreateAccount(t *testing.T) {
	t.Run("registers a patient with an otp", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("CreateAccount", mock.MatchedBy(func(p database.CreateAccountParams) bool {
			return p.Username == "pat" && p.EmailAddress == "pat@example.com" &&
				p.Role == types.RolePatient && len(p.OTP) == 6 && p.VerifyToken == ""
		})).Return(database.Account{
			Id:           3,
			Username:     "pat",
			EmailAddress: "pat@example.com",
			Role:         types.RolePatient,
		}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, RegisterRequest{
			Email:    "pat@example.com",
			Username: "pat",
			Password: "password",
			Role:     types.RolePatient,
		}))

		app.createAccount(rr, req)
		assert.Equal(t, http.StatusCreated, rr.Code)

		var user types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
		assert.Equal(t, 3, user.Id)
		assert.Equal(t, types.RolePatient, user.Role)
	})

	t.Run("registers a doctor with a profile and verify token", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("CreateAccount", mock.MatchedBy(func(p database.CreateAccountParams) bool {
			return p.Role == types.RoleDoctor && p.OTP == "" && p.VerifyToken != ""
		})).Return(database.Account{
			Id:           2,
			Username:     "drjones",
			EmailAddress: "doc@example.com",
			Role:         types.RoleDoctor,
		}, nil).Once()
		mockRepo.On("CreateDoctor", database.CreateDoctorParams{
			AccountId:      2,
			Specialization: "dermatology",
			ContactDetails: "555-0100",
		}).Return(database.Doctor{Id: 7, AccountId: 2}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, RegisterRequest{
			Email:          "doc@example.com",
			Username:       "drjones",
			Password:       "password",
			Role:           types.RoleDoctor,
			Specialization: "dermatology",
			Contact:        "555-0100",
		}))

		app.createAccount(rr, req)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("request validation", func(t *testing.T) {
		tcases := []struct {
			name string
			body any
		}{
			{
				name: "invalid json",
				body: "not json",
			},
			{
				name: "missing email",
				body: RegisterRequest{Username: "pat", Password: "password", Role: types.RolePatient},
			},
			{
				name: "missing password",
				body: RegisterRequest{Email: "pat@example.com", Username: "pat", Role: types.RolePatient},
			},
			{
				name: "invalid role",
				body: RegisterRequest{Email: "pat@example.com", Username: "pat", Password: "password", Role: "admin"},
			},
			{
				name: "doctor without specialization",
				body: RegisterRequest{Email: "doc@example.com", Username: "drjones", Password: "password", Role: types.RoleDoctor, Contact: "555-0100"},
			},
		}

		for _, tc := range tcases {
			t.Run(tc.name, func(t *testing.T) {
				mockRepo := &database.MockCarelineRepository{}
				app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

				rr := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, tc.body))

				app.createAccount(rr, req)
				assert.Equal(t, http.StatusBadRequest, rr.Code)
			})
		}
	})

	t.Run("duplicate email or username", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("CreateAccount", mock.Anything).
			Return(database.Account{}, &pq.Error{Code: "23505"}).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, RegisterRequest{
			Email:    "pat@example.com",
			Username: "pat",
			Password: "password",
			Role:     types.RolePatient,
		}))

		app.createAccount(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestLogin(t *testing.T) {
	passwordHash, err := hashPassword("password")
	assert.NoError(t, err)

	patient := database.Account{
		Id:           3,
		Username:     "pat",
		EmailAddress: "pat@example.com",
		PasswordHash: passwordHash,
		Role:         types.RolePatient,
		Verified:     true,
	}

	t.Run("patient login sets a session cookie", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAccountByEmail", "pat@example.com").Return(patient, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
			Email:    "pat@example.com",
			Password: "password",
		}))

		app.login(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		cookie := findCookie(rr, tokenCookieKey)
		assert.NotNil(t, cookie)

		sess, err := app.extractSessionFromToken(cookie.Value)
		assert.NoError(t, err)
		assert.Equal(t, types.Session{UserId: 3, Role: types.RolePatient}, sess)
	})

	t.Run("doctor login carries the profile id", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		doctorAccount := patient
		doctorAccount.Id = 2
		doctorAccount.Role = types.RoleDoctor
		doctorAccount.EmailAddress = "doc@example.com"

		mockRepo.On("GetAccountByEmail", "doc@example.com").Return(doctorAccount, nil).Once()
		mockRepo.On("GetDoctorByAccountId", 2).Return(database.Doctor{Id: 7, AccountId: 2}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
			Email:    "doc@example.com",
			Password: "password",
		}))

		app.login(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		cookie := findCookie(rr, tokenCookieKey)
		assert.NotNil(t, cookie)

		sess, err := app.extractSessionFromToken(cookie.Value)
		assert.NoError(t, err)
		assert.Equal(t, 7, sess.DoctorId)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAccountByEmail", "ghost@example.com").
			Return(database.Account{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
			Email:    "ghost@example.com",
			Password: "password",
		}))

		app.login(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAccountByEmail", "pat@example.com").Return(patient, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
			Email:    "pat@example.com",
			Password: "wrong",
		}))

		app.login(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, findCookie(rr, tokenCookieKey))
	})

	t.Run("unverified account", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		unverified := patient
		unverified.Verified = false
		mockRepo.On("GetAccountByEmail", "pat@example.com").Return(unverified, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
			Email:    "pat@example.com",
			Password: "password",
		}))

		app.login(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestVerifyOtp(t *testing.T) {
	account := database.Account{
		Id:           3,
		EmailAddress: "pat@example.com",
		Role:         types.RolePatient,
		OTP:          sql.NullString{String: "123456", Valid: true},
	}

	t.Run("marks the account verified", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAccountByEmail", "pat@example.com").Return(account, nil).Once()
		mockRepo.On("MarkAccountVerified", 3).Return(nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", jsonBody(t, VerifyOtpRequest{
			Email: "pat@example.com",
			OTP:   "123456",
		}))

		app.verifyOtp(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("wrong otp", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAccountByEmail", "pat@example.com").Return(account, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", jsonBody(t, VerifyOtpRequest{
			Email: "pat@example.com",
			OTP:   "654321",
		}))

		app.verifyOtp(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Run("verifies with the stored token", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		token, err := app.createVerifyToken("doc@example.com")
		assert.NoError(t, err)

		mockRepo.On("GetAccountByEmail", "doc@example.com").Return(database.Account{
			Id:          2,
			Role:        types.RoleDoctor,
			VerifyToken: sql.NullString{String: token, Valid: true},
		}, nil).Once()
		mockRepo.On("MarkAccountVerified", 2).Return(nil).Once()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token="+token, nil)

		app.verifyEmail(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects a token that is no longer stored", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		token, err := app.createVerifyToken("doc@example.com")
		assert.NoError(t, err)

		mockRepo.On("GetAccountByEmail", "doc@example.com").
			Return(database.Account{Id: 2, Role: types.RoleDoctor}, nil).Once()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token="+token, nil)

		app.verifyEmail(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token=garbage", nil)

		app.verifyEmail(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetDoctors(t *testing.T) {
	mockRepo := &database.MockCarelineRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListDoctors").Return([]database.Doctor{
		{Id: 7, AccountId: 2, Specialization: "dermatology", Username: "drjones"},
	}, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)

	app.getDoctors(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var doctors []types.Doctor
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&doctors))
	assert.Len(t, doctors, 1)
	assert.Equal(t, "drjones", doctors[0].Name)
}

func TestCreateAvailabilityHandler(t *testing.T) {
	doctorSession := types.Session{UserId: 2, Role: types.RoleDoctor, DoctorId: 7}

	t.Run("creates a window", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetDoctorById", 7).Return(database.Doctor{Id: 7, AccountId: 2}, nil).Once()
		mockRepo.On("CreateAvailability", mock.Anything).Return(database.Availability{
			Id:        1,
			DoctorId:  7,
			Date:      "2099-01-01",
			StartTime: "09:00",
			EndTime:   "10:00",
		}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/availability", jsonBody(t, CreateAvailabilityRequest{
			Date:      "2099-01-01",
			StartTime: "09:00",
			EndTime:   "10:00",
		}))

		app.createAvailability(rr, withSession(req, doctorSession))
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("maps validation to bad request", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/availability", jsonBody(t, CreateAvailabilityRequest{
			Date:      "2099-01-01",
			StartTime: "10:00",
			EndTime:   "09:00",
		}))

		app.createAvailability(rr, withSession(req, doctorSession))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteAvailabilityHandler(t *testing.T) {
	doctorSession := types.Session{UserId: 2, Role: types.RoleDoctor, DoctorId: 7}

	t.Run("deletes an owned window", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAvailability", 7, 1).Return(database.Availability{Id: 1, DoctorId: 7}, nil).Once()
		mockRepo.On("DeleteAvailability", 1).Return(nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/availability?id=1", nil)

		app.deleteAvailability(rr, withSession(req, doctorSession))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("another doctor's window is not found", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAvailability", 7, 1).
			Return(database.Availability{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/availability?id=1", nil)

		app.deleteAvailability(rr, withSession(req, doctorSession))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetSlots(t *testing.T) {
	patientSession := types.Session{UserId: 3, Role: types.RolePatient}

	mockRepo := &database.MockCarelineRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListAvailability", 7, "2099-01-01").Return([]database.Availability{
		{Id: 1, DoctorId: 7, Date: "2099-01-01", StartTime: "09:00", EndTime: "10:00"},
	}, nil).Once()
	mockRepo.On("ListConsultationsByDoctor", 7).
		Return([]database.Consultation{}, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/slots?doctor_id=7&date=2099-01-01", nil)

	app.getSlots(rr, withSession(req, patientSession))
	assert.Equal(t, http.StatusOK, rr.Code)

	var slots []types.Slot
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&slots))
	assert.Len(t, slots, 2)
}

func TestRequestConsultationHandler(t *testing.T) {
	patientSession := types.Session{UserId: 3, Role: types.RolePatient}
	window := database.Availability{
		Id:        1,
		DoctorId:  7,
		Date:      "2099-01-01",
		StartTime: "09:00",
		EndTime:   "10:00",
	}

	t.Run("books by availability id", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)
		mockStats := &stats.MockStatsUpdater{}
		defer mockStats.AssertExpectations(t)

		mockRepo.On("GetAvailability", 7, 1).Return(window, nil).Once()
		mockRepo.On("CreateConsultation", mock.Anything).
			Return(database.Consultation{Id: 5, PatientId: 3, DoctorId: 7, Status: "pending"}, nil).Once()
		mockStats.On("Incr", stats.ConsultationsRequested).Once()

		app := newTestApp(t, mockRepo, mockStats)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/consultations", jsonBody(t, ConsultationRequest{
			DoctorId:       7,
			AvailabilityId: 1,
			Reason:         "persistent rash",
			Description:    "red patches on both arms",
			Images:         []string{"uploads/rash.jpg"},
			StartTime:      "09:00",
			EndTime:        "09:30",
		}))

		app.requestConsultation(rr, withSession(req, patientSession))
		assert.Equal(t, http.StatusCreated, rr.Code)

		var consultation types.Consultation
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&consultation))
		assert.Equal(t, "pending", consultation.Status)
	})

	t.Run("books by slot id", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)
		mockStats := &stats.MockStatsUpdater{}
		defer mockStats.AssertExpectations(t)

		mockRepo.On("GetAvailability", 7, 1).Return(window, nil).Once()
		mockRepo.On("CreateConsultation", mock.MatchedBy(func(p database.CreateConsultationParams) bool {
			return p.AvailabilityId == 1
		})).Return(database.Consultation{Id: 5, Status: "pending"}, nil).Once()
		mockStats.On("Incr", stats.ConsultationsRequested).Once()

		app := newTestApp(t, mockRepo, mockStats)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/consultations", jsonBody(t, ConsultationRequest{
			DoctorId:    7,
			SlotId:      "1-4070941200000",
			Reason:      "persistent rash",
			Description: "red patches on both arms",
			Images:      []string{"uploads/rash.jpg"},
			StartTime:   "09:00",
			EndTime:     "09:30",
		}))

		app.requestConsultation(rr, withSession(req, patientSession))
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("overlap maps to conflict", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAvailability", 7, 1).Return(window, nil).Once()
		mockRepo.On("CreateConsultation", mock.Anything).
			Return(database.Consultation{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/consultations", jsonBody(t, ConsultationRequest{
			DoctorId:       7,
			AvailabilityId: 1,
			Reason:         "persistent rash",
			Description:    "red patches on both arms",
			Images:         []string{"uploads/rash.jpg"},
			StartTime:      "09:00",
			EndTime:        "09:30",
		}))

		app.requestConsultation(rr, withSession(req, patientSession))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("range outside window maps to bad request", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetAvailability", 7, 1).Return(window, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/consultations", jsonBody(t, ConsultationRequest{
			DoctorId:       7,
			AvailabilityId: 1,
			Reason:         "persistent rash",
			Description:    "red patches on both arms",
			Images:         []string{"uploads/rash.jpg"},
			StartTime:      "10:00",
			EndTime:        "10:30",
		}))

		app.requestConsultation(rr, withSession(req, patientSession))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUpdateConsultationStatusHandler(t *testing.T) {
	doctorSession := types.Session{UserId: 2, Role: types.RoleDoctor, DoctorId: 7}
	consultation := database.Consultation{Id: 5, DoctorId: 7, Status: "pending"}

	tcases := []struct {
		name         string
		session      types.Session
		status       string
		current      database.Consultation
		casErr       error
		expectCas    bool
		expectedCode int
	}{
		{
			name:         "accepts a pending consultation",
			session:      doctorSession,
			status:       "Accepted",
			current:      consultation,
			expectCas:    true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "rejects a pending consultation",
			session:      doctorSession,
			status:       "Rejected",
			current:      consultation,
			expectCas:    true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "illegal transition",
			session:      doctorSession,
			status:       "Completed",
			current:      consultation,
			expectedCode: http.StatusConflict,
		},
		{
			name:         "unknown status",
			session:      doctorSession,
			status:       "cancelled",
			expectedCode: http.StatusConflict,
		},
		{
			name:         "another doctor's consultation",
			session:      types.Session{UserId: 9, Role: types.RoleDoctor, DoctorId: 8},
			status:       "Accepted",
			current:      consultation,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "lost the compare-and-set",
			session:      doctorSession,
			status:       "Accepted",
			current:      consultation,
			casErr:       sql.ErrNoRows,
			expectCas:    true,
			expectedCode: http.StatusConflict,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCarelineRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.current.Id != 0 {
				mockRepo.On("GetConsultationById", 5).Return(tc.current, nil).Once()
			}
			if tc.expectCas {
				mockRepo.On("UpdateConsultationStatus", 5, "pending", tc.status).Return(tc.casErr).Once()
			}

			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/consultations/status", jsonBody(t, UpdateStatusRequest{
				Id:     5,
				Status: tc.status,
			}))

			app.updateConsultationStatus(rr, withSession(req, tc.session))
			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func TestSendMessageHandler(t *testing.T) {
	patientSession := types.Session{UserId: 3, Role: types.RolePatient}
	doctor := database.Doctor{Id: 7, AccountId: 2, Username: "drjones"}

	t.Run("sends and records a message", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)
		mockStats := &stats.MockStatsUpdater{}
		defer mockStats.AssertExpectations(t)

		mockRepo.On("GetDoctorById", 7).Return(doctor, nil).Once()
		mockRepo.On("AppendConversationMessage", 2, 3, mock.AnythingOfType("string"), mock.Anything).
			Return(database.Conversation{Id: 11, ExternalId: "c0nv1d", ParticipantA: 2, ParticipantB: 3}, nil).Once()
		mockRepo.On("CreateMessage", mock.Anything).Return(database.Message{Id: 1}, nil).Once()
		mockStats.On("Incr", stats.MessagesSent).Once()

		app := newTestApp(t, mockRepo, mockStats)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/messages", jsonBody(t, SendMessageRequest{
			CounterpartId: 7,
			Body:          "hello doctor",
		}))

		app.sendMessage(rr, withSession(req, patientSession))
		assert.Equal(t, http.StatusCreated, rr.Code)

		var msg types.ChatMessage
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&msg))
		assert.Equal(t, "c0nv1d", msg.ConversationId)
	})

	t.Run("empty body maps to bad request", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/messages", jsonBody(t, SendMessageRequest{
			CounterpartId: 7,
		}))

		app.sendMessage(rr, withSession(req, patientSession))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown doctor maps to not found", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetDoctorById", 7).
			Return(database.Doctor{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/messages", jsonBody(t, SendMessageRequest{
			CounterpartId: 7,
			Body:          "hello",
		}))

		app.sendMessage(rr, withSession(req, patientSession))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetMessagesHandler(t *testing.T) {
	patientSession := types.Session{UserId: 3, Role: types.RolePatient}
	doctor := database.Doctor{Id: 7, AccountId: 2, Username: "drjones"}

	mockRepo := &database.MockCarelineRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetDoctorById", 7).Return(doctor, nil).Once()
	mockRepo.On("GetConversation", 2, 3).
		Return(database.Conversation{}, sql.ErrNoRows).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages?counterpart_id=7", nil)

	app.getMessages(rr, withSession(req, patientSession))
	assert.Equal(t, http.StatusOK, rr.Code)

	var history types.ChatHistory
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&history))
	assert.Empty(t, history.Sent)
	assert.Empty(t, history.Received)
}

func TestChatPeersHandlers(t *testing.T) {
	t.Run("patient lists accepted doctors", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("ListAcceptedDoctors", 3).Return([]database.Doctor{
			{Id: 7, AccountId: 2, Username: "drjones"},
		}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/chat/doctors", nil)

		app.getDoctorsForChat(rr, withSession(req, types.Session{UserId: 3, Role: types.RolePatient}))
		assert.Equal(t, http.StatusOK, rr.Code)

		var peers []types.ChatPeer
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&peers))
		assert.Equal(t, []types.ChatPeer{{Id: 7, Name: "drjones"}}, peers)
	})

	t.Run("doctor lists accepted patients", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("ListAcceptedPatients", 7).Return([]database.Account{
			{Id: 3, Username: "pat"},
		}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/chat/patients", nil)

		app.getPatientsForChat(rr, withSession(req, types.Session{UserId: 2, Role: types.RoleDoctor, DoctorId: 7}))
		assert.Equal(t, http.StatusOK, rr.Code)

		var peers []types.ChatPeer
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&peers))
		assert.Equal(t, []types.ChatPeer{{Id: 3, Name: "pat"}}, peers)
	})
}
