package services

import (
	"context"
	"strings"
	"time"

	"ninma/models"

	"gorm.io/gorm"
)

type RegistrationService struct {
	db     *gorm.DB
	events *EventService
	now    func() time.Time
}

func NewRegistrationService(db *gorm.DB, events *EventService) *RegistrationService {
	return &RegistrationService{db: db, events: events, now: time.Now}
}

type RegistrationFilters struct {
	Status string
	Search string
}

type RegistrationSummary struct {
	Total     int64 `json:"total"`
	Confirmed int64 `json:"confirmed"`
	Pending   int64 `json:"pending"`
	Cancelled int64 `json:"cancelled"`
	Attended  int64 `json:"attended"`
}

type RegistrationList struct {
	Registrations []models.Registration `json:"registrations"`
	Summary       RegistrationSummary   `json:"summary"`
	Pagination    Pagination            `json:"pagination"`
}

// Register signs userID up for eventID. A cancelled registration is
// reactivated instead of creating a second row.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID, notes, dietary string) (*models.Registration, error) {
	db := s.db.WithContext(ctx)

	var event models.Event
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Evento não encontrado!")
		}
		return nil, err
	}

	eligible, err := s.events.eligibility(db, &event)
	if err != nil {
		return nil, err
	}
	if !eligible.CanRegister {
		return nil, conflict(eligible.Reason)
	}

	now := s.now()
	status := models.RegistrationConfirmed
	var confirmedAt *time.Time
	if event.RequiresApproval {
		status = models.RegistrationPending
	} else {
		confirmedAt = &now
	}

	var existing models.Registration
	err = db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status != models.RegistrationCancelled {
			return nil, conflict("Você já está inscrito neste evento!")
		}
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"status":               status,
			"confirmed":            status == models.RegistrationConfirmed,
			"confirmed_at":         confirmedAt,
			"cancelled_at":         nil,
			"registered_at":        now,
			"notes":                notes,
			"dietary_restrictions": dietary,
		}).Error; err != nil {
			return nil, err
		}
		return s.GetRegistration(ctx, existing.ID)
	case !isNotFound(err):
		return nil, err
	}

	registration := models.Registration{
		EventID:             eventID,
		UserID:              userID,
		Status:              status,
		Notes:               notes,
		DietaryRestrictions: dietary,
		Confirmed:           status == models.RegistrationConfirmed,
		ConfirmedAt:         confirmedAt,
		RegisteredAt:        now,
	}
	if err := db.Omit("Event", "User", "Attendance", "Certificate").Create(&registration).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("Você já está inscrito neste evento!")
		}
		return nil, err
	}
	return s.GetRegistration(ctx, registration.ID)
}

// Cancel moves the user's PENDING or CONFIRMED registration to CANCELLED.
func (s *RegistrationService) Cancel(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	db := s.db.WithContext(ctx)

	var registration models.Registration
	if err := db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&registration).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Inscrição não encontrada!")
		}
		return nil, err
	}

	switch registration.Status {
	case models.RegistrationPending, models.RegistrationConfirmed, models.RegistrationWaitlist:
	case models.RegistrationCancelled:
		return nil, conflict("Inscrição já cancelada!")
	default:
		return nil, conflict("Esta inscrição não pode mais ser cancelada!")
	}

	now := s.now()
	if err := db.Model(&registration).Updates(map[string]interface{}{
		"status":       models.RegistrationCancelled,
		"cancelled_at": now,
	}).Error; err != nil {
		return nil, err
	}
	registration.Status = models.RegistrationCancelled
	registration.CancelledAt = &now
	return &registration, nil
}

// Approve confirms a PENDING or WAITLIST registration.
func (s *RegistrationService) Approve(ctx context.Context, registrationID string) (*models.Registration, error) {
	db := s.db.WithContext(ctx)

	var registration models.Registration
	if err := db.First(&registration, "id = ?", registrationID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Inscrição não encontrada!")
		}
		return nil, err
	}
	if registration.Status != models.RegistrationPending && registration.Status != models.RegistrationWaitlist {
		return nil, conflict("Apenas inscrições pendentes podem ser aprovadas!")
	}

	now := s.now()
	if err := db.Model(&registration).Updates(map[string]interface{}{
		"status":       models.RegistrationConfirmed,
		"confirmed":    true,
		"confirmed_at": now,
	}).Error; err != nil {
		return nil, err
	}
	return s.GetRegistration(ctx, registrationID)
}

func (s *RegistrationService) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	var registration models.Registration
	if err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("User").
		First(&registration, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Inscrição não encontrada!")
		}
		return nil, err
	}
	return &registration, nil
}

// ListEventRegistrations returns one page of an event's registrations with
// per-status counters for the whole event.
func (s *RegistrationService) ListEventRegistrations(ctx context.Context, eventID string, f RegistrationFilters, page, limit int) (*RegistrationList, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx)

	q := db.Model(&models.Registration{}).Where("registrations.event_id = ?", eventID)
	if f.Status != "" {
		q = q.Where("registrations.status = ?", f.Status)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Joins("JOIN users ON users.id = registrations.user_id").
			Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	registrations := []models.Registration{}
	if err := q.Preload("User").
		Preload("Attendance").
		Order("registrations.registered_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&registrations).Error; err != nil {
		return nil, err
	}

	byStatus, err := registrationCountsByStatus(db, eventID)
	if err != nil {
		return nil, err
	}
	summary := RegistrationSummary{
		Confirmed: byStatus[models.RegistrationConfirmed],
		Pending:   byStatus[models.RegistrationPending],
		Cancelled: byStatus[models.RegistrationCancelled],
		Attended:  byStatus[models.RegistrationAttended],
	}
	for _, n := range byStatus {
		summary.Total += n
	}

	return &RegistrationList{
		Registrations: registrations,
		Summary:       summary,
		Pagination:    newPagination(page, limit, total),
	}, nil
}

// GetUserRegistrations lists the caller's registrations with their events.
func (s *RegistrationService) GetUserRegistrations(ctx context.Context, userID string) ([]models.Registration, error) {
	registrations := []models.Registration{}
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Certificate").
		Where("user_id = ?", userID).
		Order("registered_at DESC").
		Find(&registrations).Error
	return registrations, err
}
