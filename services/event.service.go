package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ninma/models"
	"ninma/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// EventInput carries the fields accepted when creating an event.
type EventInput struct {
	Title                string
	Description          string
	ShortDesc            string
	Type                 string
	Status               string
	StartDate            time.Time
	EndDate              time.Time
	Location             string
	Address              string
	City                 string
	State                string
	IsOnline             bool
	MeetingURL           string
	Capacity             *int
	AllowRegistrations   bool
	RegistrationStart    *time.Time
	RegistrationEnd      *time.Time
	RequiresApproval     bool
	AllowSubmissions     bool
	SubmissionStart      *time.Time
	SubmissionEnd        *time.Time
	SubmissionGuidelines string
	IssueCertificates    bool
	CertificateTemplate  string
	Workload             int
	Image                string
	Banner               string
	Tags                 []string
	Keywords             []string
	CreatedByID          string
}

// EventUpdate is a partial update; nil fields are left untouched.
type EventUpdate struct {
	Title                *string
	Description          *string
	ShortDesc            *string
	Type                 *string
	Status               *string
	StartDate            *time.Time
	EndDate              *time.Time
	Location             *string
	Address              *string
	City                 *string
	State                *string
	IsOnline             *bool
	MeetingURL           *string
	Capacity             *int
	AllowRegistrations   *bool
	RegistrationStart    *time.Time
	RegistrationEnd      *time.Time
	RequiresApproval     *bool
	AllowSubmissions     *bool
	SubmissionStart      *time.Time
	SubmissionEnd        *time.Time
	SubmissionGuidelines *string
	IssueCertificates    *bool
	CertificateTemplate  *string
	Workload             *int
	Image                *string
	Banner               *string
	Tags                 []string
	Keywords             []string

	// Clear lists optional fields to reset to NULL (see ClearableEventFields).
	Clear []string
}

// ClearableEventFields maps the optional event fields an update may clear to
// their columns.
var ClearableEventFields = map[string]string{
	"capacity":          "capacity",
	"registrationStart": "registration_start",
	"registrationEnd":   "registration_end",
	"submissionStart":   "submission_start",
	"submissionEnd":     "submission_end",
}

type EventFilters struct {
	Status    string
	Type      string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	IsOnline  *bool
	Tags      []string
}

type EventList struct {
	Events     []models.Event `json:"events"`
	Pagination Pagination     `json:"pagination"`
}

type Eligibility struct {
	CanRegister bool   `json:"canRegister"`
	Reason      string `json:"reason,omitempty"`
}

type EventStats struct {
	Registrations struct {
		Total     int64 `json:"total"`
		Confirmed int64 `json:"confirmed"`
		Pending   int64 `json:"pending"`
		Cancelled int64 `json:"cancelled"`
		Attended  int64 `json:"attended"`
	} `json:"registrations"`
	Submissions  int64 `json:"submissions"`
	Certificates int64 `json:"certificates"`
}

var eventOrderColumns = map[string]string{
	"startDate": "start_date",
	"endDate":   "end_date",
	"createdAt": "created_at",
	"title":     "title",
}

func (s *EventService) CreateEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	if in.EndDate.Before(in.StartDate) {
		return nil, validation("Data de término deve ser posterior à data de início!")
	}

	db := s.db.WithContext(ctx)
	slug, err := s.uniqueSlug(db, in.Title, "")
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.EventDraft
	}
	eventType := in.Type
	if eventType == "" {
		eventType = models.EventTypeOther
	}

	event := models.Event{
		Title:                in.Title,
		Slug:                 slug,
		Description:          in.Description,
		ShortDesc:            in.ShortDesc,
		Type:                 eventType,
		Status:               status,
		StartDate:            in.StartDate,
		EndDate:              in.EndDate,
		Location:             in.Location,
		Address:              in.Address,
		City:                 in.City,
		State:                in.State,
		IsOnline:             in.IsOnline,
		MeetingURL:           in.MeetingURL,
		Capacity:             in.Capacity,
		AllowRegistrations:   in.AllowRegistrations,
		RegistrationStart:    in.RegistrationStart,
		RegistrationEnd:      in.RegistrationEnd,
		RequiresApproval:     in.RequiresApproval,
		AllowSubmissions:     in.AllowSubmissions,
		SubmissionStart:      in.SubmissionStart,
		SubmissionEnd:        in.SubmissionEnd,
		SubmissionGuidelines: in.SubmissionGuidelines,
		IssueCertificates:    in.IssueCertificates,
		CertificateTemplate:  in.CertificateTemplate,
		Workload:             in.Workload,
		Image:                in.Image,
		Banner:               in.Banner,
		Tags:                 datatypes.NewJSONSlice(nonNil(in.Tags)),
		Keywords:             datatypes.NewJSONSlice(nonNil(in.Keywords)),
		CreatedByID:          in.CreatedByID,
	}
	if status == models.EventOpen {
		now := s.now()
		event.PublishedAt = &now
	}

	// Select("*") keeps false booleans from being replaced by column defaults.
	if err := db.Select("*").Omit("CreatedBy", "Registrations", "Submissions", "Certificates").Create(&event).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("Já existe um evento com este slug!")
		}
		return nil, err
	}
	return &event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id string, in EventUpdate) (*models.Event, error) {
	db := s.db.WithContext(ctx)

	var event models.Event
	if err := db.First(&event, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Evento não encontrado!")
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil && *in.Title != event.Title {
		slug, err := s.uniqueSlug(db, *in.Title, event.ID)
		if err != nil {
			return nil, err
		}
		updates["title"] = *in.Title
		updates["slug"] = slug
	}
	if in.Status != nil {
		if !models.IsValidEventStatus(*in.Status) {
			return nil, validation("Status de evento inválido!")
		}
		updates["status"] = *in.Status
		if *in.Status == models.EventOpen && event.PublishedAt == nil {
			updates["published_at"] = s.now()
		}
	}

	setString(updates, "description", in.Description)
	setString(updates, "short_desc", in.ShortDesc)
	setString(updates, "type", in.Type)
	setString(updates, "location", in.Location)
	setString(updates, "address", in.Address)
	setString(updates, "city", in.City)
	setString(updates, "state", in.State)
	setString(updates, "meeting_url", in.MeetingURL)
	setString(updates, "submission_guidelines", in.SubmissionGuidelines)
	setString(updates, "certificate_template", in.CertificateTemplate)
	setString(updates, "image", in.Image)
	setString(updates, "banner", in.Banner)
	setBool(updates, "is_online", in.IsOnline)
	setBool(updates, "allow_registrations", in.AllowRegistrations)
	setBool(updates, "requires_approval", in.RequiresApproval)
	setBool(updates, "allow_submissions", in.AllowSubmissions)
	setBool(updates, "issue_certificates", in.IssueCertificates)
	setTime(updates, "start_date", in.StartDate)
	setTime(updates, "end_date", in.EndDate)
	setTime(updates, "registration_start", in.RegistrationStart)
	setTime(updates, "registration_end", in.RegistrationEnd)
	setTime(updates, "submission_start", in.SubmissionStart)
	setTime(updates, "submission_end", in.SubmissionEnd)
	if in.Capacity != nil {
		updates["capacity"] = *in.Capacity
	}
	if in.Workload != nil {
		updates["workload"] = *in.Workload
	}
	if in.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(in.Tags)
	}
	if in.Keywords != nil {
		updates["keywords"] = datatypes.NewJSONSlice(in.Keywords)
	}
	for _, field := range in.Clear {
		col, ok := ClearableEventFields[field]
		if !ok {
			return nil, validation("Este campo não pode ser limpo!")
		}
		if _, set := updates[col]; set {
			return nil, validation("Um campo não pode ser definido e limpo ao mesmo tempo!")
		}
		updates[col] = nil
	}

	start, end := event.StartDate, event.EndDate
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil {
		end = *in.EndDate
	}
	if end.Before(start) {
		return nil, validation("Data de término deve ser posterior à data de início!")
	}

	if len(updates) > 0 {
		if err := db.Model(&event).Updates(updates).Error; err != nil {
			if isDuplicate(err) {
				return nil, conflict("Já existe um evento com este slug!")
			}
			return nil, err
		}
	}
	return s.GetEventByID(ctx, id)
}

// DeleteEvent removes the event; dependent rows go with it through the
// foreign key cascades.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, "id = ?", id).Error; err != nil {
			if isNotFound(err) {
				return notFound("Evento não encontrado!")
			}
			return err
		}

		// SQLite ignores foreign keys unless enabled, so clear children explicitly.
		regIDs := tx.Model(&models.Registration{}).Select("id").Where("event_id = ?", id)
		subIDs := tx.Model(&models.Submission{}).Select("id").Where("event_id = ?", id)
		steps := []func() error{
			func() error { return tx.Where("registration_id IN (?)", regIDs).Delete(&models.Attendance{}).Error },
			func() error { return tx.Where("event_id = ?", id).Delete(&models.Certificate{}).Error },
			func() error { return tx.Where("submission_id IN (?)", subIDs).Delete(&models.Review{}).Error },
			func() error { return tx.Where("event_id = ?", id).Delete(&models.Submission{}).Error },
			func() error { return tx.Where("event_id = ?", id).Delete(&models.Registration{}).Error },
			func() error { return tx.Delete(&event).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *EventService) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	return s.getEvent(ctx, "id = ?", id)
}

func (s *EventService) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	return s.getEvent(ctx, "slug = ?", slug)
}

func (s *EventService) getEvent(ctx context.Context, cond string, arg string) (*models.Event, error) {
	db := s.db.WithContext(ctx)

	var event models.Event
	if err := db.Preload("CreatedBy").Where(cond, arg).First(&event).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Evento não encontrado!")
		}
		return nil, err
	}

	events := []models.Event{event}
	if err := attachEventCounts(db, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

// ListEvents returns a filtered page of events. orderBy is a field name
// optionally prefixed with "-" for descending; the default is -startDate.
func (s *EventService) ListEvents(ctx context.Context, f EventFilters, page, limit int, orderBy string) (*EventList, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx)

	q := db.Model(&models.Event{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(short_desc) LIKE ?", like, like, like)
	}
	if f.StartDate != nil {
		q = q.Where("start_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("end_date <= ?", *f.EndDate)
	}
	if f.IsOnline != nil {
		q = q.Where("is_online = ?", *f.IsOnline)
	}
	if len(f.Tags) > 0 {
		anyTag := db.Where(datatypes.JSONArrayQuery("tags").Contains(f.Tags[0]))
		for _, tag := range f.Tags[1:] {
			anyTag = anyTag.Or(datatypes.JSONArrayQuery("tags").Contains(tag))
		}
		q = q.Where(anyTag)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	events := []models.Event{}
	if err := q.Preload("CreatedBy").
		Order(eventOrder(orderBy)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	if err := attachEventCounts(db, events); err != nil {
		return nil, err
	}

	return &EventList{Events: events, Pagination: newPagination(page, limit, total)}, nil
}

// GetUserEvents lists the events created by userID, newest first.
func (s *EventService) GetUserEvents(ctx context.Context, userID string, page, limit int) (*EventList, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx)

	q := db.Model(&models.Event{}).Where("created_by_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	events := []models.Event{}
	if err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	if err := attachEventCounts(db, events); err != nil {
		return nil, err
	}
	return &EventList{Events: events, Pagination: newPagination(page, limit, total)}, nil
}

// GetUpcomingEvents lists OPEN events that have not started yet.
func (s *EventService) GetUpcomingEvents(ctx context.Context, limit int) ([]models.Event, error) {
	_, limit = normalizePage(1, limit)
	db := s.db.WithContext(ctx)

	events := []models.Event{}
	if err := db.Preload("CreatedBy").
		Where("status = ? AND start_date >= ?", models.EventOpen, s.now()).
		Order("start_date ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	if err := attachEventCounts(db, events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetPopularEvents lists OPEN events ordered by registration count.
func (s *EventService) GetPopularEvents(ctx context.Context, limit int) ([]models.Event, error) {
	_, limit = normalizePage(1, limit)
	db := s.db.WithContext(ctx)

	events := []models.Event{}
	if err := db.Preload("CreatedBy").
		Where("status = ?", models.EventOpen).
		Order("(SELECT COUNT(*) FROM registrations WHERE registrations.event_id = events.id) DESC").
		Order("start_date ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	if err := attachEventCounts(db, events); err != nil {
		return nil, err
	}
	return events, nil
}

// CanUserManageEvent is true for ADMIN, for COORDINATOR, and for the creator.
func (s *EventService) CanUserManageEvent(ctx context.Context, userID, eventID string) (bool, error) {
	return canManageEvent(s.db.WithContext(ctx), userID, eventID)
}

// CanRegister evaluates the registration preconditions in order and stops
// at the first one that fails.
func (s *EventService) CanRegister(ctx context.Context, eventID string) (Eligibility, error) {
	db := s.db.WithContext(ctx)

	var event models.Event
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		if isNotFound(err) {
			return Eligibility{Reason: "Evento não encontrado"}, nil
		}
		return Eligibility{}, err
	}
	return s.eligibility(db, &event)
}

func (s *EventService) eligibility(db *gorm.DB, event *models.Event) (Eligibility, error) {
	now := s.now()
	switch {
	case !event.AllowRegistrations:
		return Eligibility{Reason: "Inscrições não permitidas"}, nil
	case event.Status != models.EventOpen:
		return Eligibility{Reason: "Evento não está aberto para inscrições"}, nil
	case event.RegistrationStart != nil && now.Before(*event.RegistrationStart):
		return Eligibility{Reason: "Período de inscrições ainda não começou"}, nil
	case event.RegistrationEnd != nil && now.After(*event.RegistrationEnd):
		return Eligibility{Reason: "Período de inscrições encerrado"}, nil
	}

	if event.Capacity != nil {
		var active int64
		if err := db.Model(&models.Registration{}).
			Where("event_id = ? AND status <> ?", event.ID, models.RegistrationCancelled).
			Count(&active).Error; err != nil {
			return Eligibility{}, err
		}
		if active >= int64(*event.Capacity) {
			return Eligibility{Reason: "Evento com capacidade máxima atingida"}, nil
		}
	}
	return Eligibility{CanRegister: true}, nil
}

func (s *EventService) GetEventStats(ctx context.Context, eventID string) (*EventStats, error) {
	db := s.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.Event{}).Where("id = ?", eventID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, notFound("Evento não encontrado!")
	}

	stats := &EventStats{}
	byStatus, err := registrationCountsByStatus(db, eventID)
	if err != nil {
		return nil, err
	}
	for status, n := range byStatus {
		stats.Registrations.Total += n
		switch status {
		case models.RegistrationConfirmed:
			stats.Registrations.Confirmed = n
		case models.RegistrationPending:
			stats.Registrations.Pending = n
		case models.RegistrationCancelled:
			stats.Registrations.Cancelled = n
		case models.RegistrationAttended:
			stats.Registrations.Attended = n
		}
	}

	if err := db.Model(&models.Submission{}).Where("event_id = ?", eventID).Count(&stats.Submissions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Certificate{}).Where("event_id = ?", eventID).Count(&stats.Certificates).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// uniqueSlug appends -1, -2, ... to the slugified title until it is free.
func (s *EventService) uniqueSlug(db *gorm.DB, title, excludeID string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "evento"
	}

	slug := base
	for i := 1; ; i++ {
		q := db.Model(&models.Event{}).Where("slug = ?", slug)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func canManageEvent(db *gorm.DB, userID, eventID string) (bool, error) {
	var user models.User
	if err := db.Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if user.Role == models.RoleAdmin {
		return true, nil
	}

	var event models.Event
	if err := db.Select("id", "created_by_id").First(&event, "id = ?", eventID).Error; err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return event.CreatedByID == userID || user.Role == models.RoleCoordinator, nil
}

func registrationCountsByStatus(db *gorm.DB, eventID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&models.Registration{}).
		Select("status, COUNT(*) AS total").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

// attachEventCounts fills Counts on every event with three grouped queries.
func attachEventCounts(db *gorm.DB, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
		events[i].Counts = &models.EventCounts{}
	}

	count := func(model interface{}) (map[string]int64, error) {
		var rows []struct {
			EventID string
			Total   int64
		}
		err := db.Model(model).
			Select("event_id, COUNT(*) AS total").
			Where("event_id IN ?", ids).
			Group("event_id").
			Scan(&rows).Error
		out := make(map[string]int64, len(rows))
		for _, r := range rows {
			out[r.EventID] = r.Total
		}
		return out, err
	}

	regs, err := count(&models.Registration{})
	if err != nil {
		return err
	}
	subs, err := count(&models.Submission{})
	if err != nil {
		return err
	}
	certs, err := count(&models.Certificate{})
	if err != nil {
		return err
	}
	for i := range events {
		id := events[i].ID
		events[i].Counts.Registrations = regs[id]
		events[i].Counts.Submissions = subs[id]
		events[i].Counts.Certificates = certs[id]
	}
	return nil
}

func eventOrder(orderBy string) string {
	dir := "ASC"
	field := orderBy
	if strings.HasPrefix(field, "-") {
		dir = "DESC"
		field = field[1:]
	}
	col, ok := eventOrderColumns[field]
	if !ok {
		return "start_date DESC"
	}
	return col + " " + dir
}

func setString(m map[string]interface{}, col string, v *string) {
	if v != nil {
		m[col] = *v
	}
}

func setBool(m map[string]interface{}, col string, v *bool) {
	if v != nil {
		m[col] = *v
	}
}

func setTime(m map[string]interface{}, col string, v *time.Time) {
	if v != nil {
		m[col] = *v
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
