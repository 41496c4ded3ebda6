package services

import (
	"path/filepath"
	"testing"
	"time"

	"ninma/database"
	"ninma/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), "silent")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()

	user := &models.User{
		Name:        name,
		Email:       name + "@ninma.test",
		Password:    "x",
		Role:        role,
		Institution: "Universidade Federal",
		Course:      "Letras",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// openEvent returns an event that accepts registrations, submissions and
// certificates; mutate lets a test break exactly one condition.
func openEvent(t *testing.T, db *gorm.DB, owner *models.User, mutate func(*models.Event)) *models.Event {
	t.Helper()

	regStart := fixedNow.Add(-24 * time.Hour)
	regEnd := fixedNow.Add(24 * time.Hour)
	event := &models.Event{
		Title:              "Jornada de Estudos " + owner.Name,
		Slug:               "jornada-" + owner.ID,
		Type:               models.EventTypeWorkshop,
		Status:             models.EventOpen,
		StartDate:          fixedNow.Add(48 * time.Hour),
		EndDate:            fixedNow.Add(72 * time.Hour),
		AllowRegistrations: true,
		RegistrationStart:  &regStart,
		RegistrationEnd:    &regEnd,
		AllowSubmissions:   true,
		SubmissionStart:    &regStart,
		SubmissionEnd:      &regEnd,
		IssueCertificates:  true,
		Workload:           8,
		CreatedByID:        owner.ID,
	}
	if mutate != nil {
		mutate(event)
	}
	require.NoError(t, db.Select("*").Omit("CreatedBy", "Registrations", "Submissions", "Certificates").Create(event).Error)
	return event
}

func createRegistration(t *testing.T, db *gorm.DB, event *models.Event, user *models.User, status string) *models.Registration {
	t.Helper()

	reg := &models.Registration{
		EventID:      event.ID,
		UserID:       user.ID,
		Status:       status,
		Confirmed:    status == models.RegistrationConfirmed,
		RegisteredAt: fixedNow,
	}
	require.NoError(t, db.Create(reg).Error)
	return reg
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
