package api

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/careline/go-careline/internal/types"
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultJwtExpiration  = time.Hour * 24
	verifyTokenExpiration = time.Minute * 10
	tokenCookieKey        = "token"
)

const (
	userIdClaim   = "user-id"
	emailClaim    = "email"
	roleClaim     = "role"
	doctorIdClaim = "doctor-id"
	expClaim      = "exp"
)

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, sess types.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func SessionFrom(ctx context.Context) (types.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(types.Session)

	return sess, ok
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}

func (s *CarelineApp) createJwtForSession(sess types.Session, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim:   sess.UserId,
		roleClaim:     sess.Role,
		doctorIdClaim: sess.DoctorId,
		expClaim:      time.Now().Add(exp).Unix(),
	})

	return token.SignedString(s.signingKey)
}

func (s *CarelineApp) verifyToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

func (s *CarelineApp) extractSessionFromToken(tokenString string) (types.Session, error) {
	claims, err := s.verifyToken(tokenString)
	if err != nil {
		return types.Session{}, err
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return types.Session{}, fmt.Errorf("invalid user id claim")
	}

	role, ok := claims[roleClaim].(string)
	if !ok {
		return types.Session{}, fmt.Errorf("invalid role claim")
	}

	// doctor-id is zero for patients
	doctorId, _ := claims[doctorIdClaim].(float64)

	return types.Session{
		UserId:   int(userId),
		Role:     role,
		DoctorId: int(doctorId),
	}, nil
}

// createVerifyToken issues a short-lived token embedded in the doctor
// email verification link. It is keyed by email so it can be generated
// before the account row exists.
func (s *CarelineApp) createVerifyToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		emailClaim: email,
		expClaim:   time.Now().Add(verifyTokenExpiration).Unix(),
	})

	return token.SignedString(s.signingKey)
}

func (s *CarelineApp) parseVerifyToken(tokenString string) (string, error) {
	claims, err := s.verifyToken(tokenString)
	if err != nil {
		return "", err
	}

	email, ok := claims[emailClaim].(string)
	if !ok {
		return "", fmt.Errorf("invalid email claim")
	}

	return email, nil
}

func createJwtCookie(tokenString string, exp time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     tokenCookieKey,
		Value:    tokenString,
		Path:     "/",
		Expires:  time.Now().Add(exp),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// generateOTP returns a six digit numeric one-time password for patient
// email verification.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
