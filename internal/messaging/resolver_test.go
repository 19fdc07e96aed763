package messaging

import (
	"database/sql"
	"testing"

	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/testutil"
	"github.com/careline/go-careline/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestResolvePair(t *testing.T) {
	// doctor profile 7 is backed by account 2
	doctor := database.Doctor{Id: 7, AccountId: 2, Username: "drjones"}

	t.Run("patient addressing a doctor profile", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetDoctorById", 7).Return(doctor, nil).Once()

		svc := NewService(testutil.TestLogger(t), mockRepo)
		senderId, receiverId, err := svc.ResolvePair(types.RolePatient, 3, 7)
		assert.NoError(t, err)
		assert.Equal(t, 3, senderId)
		assert.Equal(t, 2, receiverId)
	})

	t.Run("doctor addressing a patient account", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetDoctorById", 7).Return(doctor, nil).Once()

		svc := NewService(testutil.TestLogger(t), mockRepo)
		senderId, receiverId, err := svc.ResolvePair(types.RoleDoctor, 7, 3)
		assert.NoError(t, err)
		assert.Equal(t, 2, senderId)
		assert.Equal(t, 3, receiverId)
	})

	t.Run("both directions land on the same pair", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetDoctorById", 7).Return(doctor, nil).Twice()

		svc := NewService(testutil.TestLogger(t), mockRepo)

		ps, pr, err := svc.ResolvePair(types.RolePatient, 3, 7)
		assert.NoError(t, err)
		ds, dr, err := svc.ResolvePair(types.RoleDoctor, 7, 3)
		assert.NoError(t, err)

		pa, pb := NormalizePair(ps, pr)
		da, db := NormalizePair(ds, dr)
		assert.Equal(t, pa, da)
		assert.Equal(t, pb, db)
	})

	t.Run("unknown doctor profile", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetDoctorById", 7).
			Return(database.Doctor{}, sql.ErrNoRows).Once()

		svc := NewService(testutil.TestLogger(t), mockRepo)
		_, _, err := svc.ResolvePair(types.RolePatient, 3, 7)
		assert.ErrorIs(t, err, ErrDoctorNotFound)
	})

	t.Run("invalid role", func(t *testing.T) {
		mockRepo := &database.MockCarelineRepository{}
		svc := NewService(testutil.TestLogger(t), mockRepo)

		_, _, err := svc.ResolvePair("admin", 3, 7)
		assert.Error(t, err)
	})
}

func TestNormalizePair(t *testing.T) {
	tcases := []struct {
		name  string
		a, b  int
		wantA int
		wantB int
	}{
		{
			name:  "already ordered",
			a:     2,
			b:     3,
			wantA: 2,
			wantB: 3,
		},
		{
			name:  "swapped",
			a:     3,
			b:     2,
			wantA: 2,
			wantB: 3,
		},
		{
			name:  "equal",
			a:     2,
			b:     2,
			wantA: 2,
			wantB: 2,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := NormalizePair(tc.a, tc.b)
			assert.Equal(t, tc.wantA, a)
			assert.Equal(t, tc.wantB, b)
		})
	}
}
