package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/careline/go-careline/internal/config"
	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/messaging"
	"github.com/careline/go-careline/internal/push"
	"github.com/careline/go-careline/internal/scheduling"
	"github.com/careline/go-careline/internal/stats"
	"github.com/careline/go-careline/internal/types"
	"github.com/gorilla/handlers"
)

type CarelineApp struct {
	log            *log.Logger
	db             database.CarelineRepository
	scheduler      *scheduling.Service
	messages       *messaging.Service
	ps             *push.PushServer
	stats          stats.StatsProvider
	mailer         Mailer
	mux            *http.Server
	signingKey     []byte
	allowedOrigins []string
}

func NewCarelineApp(mux *http.ServeMux, logger *log.Logger, ps *push.PushServer, db database.CarelineRepository,
	scheduler *scheduling.Service, messages *messaging.Service, sp stats.StatsProvider, mailer Mailer, cfg *config.Config) *CarelineApp {
	s := &CarelineApp{
		log:            logger,
		db:             db,
		scheduler:      scheduler,
		messages:       messages,
		ps:             ps,
		stats:          sp,
		mailer:         mailer,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/verify-otp", s.verifyOtp)
	mux.HandleFunc("GET /api/auth/verify-email", s.verifyEmail)
	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("GET /api/doctors", s.authMiddleware(s.getDoctors))
	mux.Handle("POST /api/availability", s.authMiddleware(s.requireRole(types.RoleDoctor, s.createAvailability)))
	mux.Handle("GET /api/availability", s.authMiddleware(s.getAvailability))
	mux.Handle("DELETE /api/availability", s.authMiddleware(s.requireRole(types.RoleDoctor, s.deleteAvailability)))
	mux.Handle("GET /api/slots", s.authMiddleware(s.requireRole(types.RolePatient, s.getSlots)))
	mux.Handle("POST /api/consultations", s.authMiddleware(s.requireRole(types.RolePatient, s.requestConsultation)))
	mux.Handle("GET /api/consultations", s.authMiddleware(s.requireRole(types.RolePatient, s.getPatientConsultations)))
	mux.Handle("GET /api/consultations/requests", s.authMiddleware(s.requireRole(types.RoleDoctor, s.getDoctorConsultations)))
	mux.Handle("PUT /api/consultations/status", s.authMiddleware(s.requireRole(types.RoleDoctor, s.updateConsultationStatus)))
	mux.Handle("GET /api/chat/doctors", s.authMiddleware(s.requireRole(types.RolePatient, s.getDoctorsForChat)))
	mux.Handle("GET /api/chat/patients", s.authMiddleware(s.requireRole(types.RoleDoctor, s.getPatientsForChat)))
	mux.Handle("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("GET /api/messages/log", s.authMiddleware(s.getMessageLog))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *CarelineApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CarelineApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
