package services

import (
	"context"
	"testing"
	"time"

	"ninma/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventService(t *testing.T) (*EventService, *models.User) {
	t.Helper()
	db := newTestDB(t)
	svc := NewEventService(db)
	svc.now = clock
	return svc, createUser(t, db, "coord", models.RoleCoordinator)
}

func TestCreateEventSlugCollisions(t *testing.T) {
	svc, owner := newEventService(t)
	ctx := context.Background()

	in := EventInput{
		Title:       "Congresso de Educação Ambiental",
		StartDate:   fixedNow,
		EndDate:     fixedNow.Add(time.Hour),
		CreatedByID: owner.ID,
	}

	first, err := svc.CreateEvent(ctx, in)
	require.NoError(t, err)
	second, err := svc.CreateEvent(ctx, in)
	require.NoError(t, err)
	third, err := svc.CreateEvent(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "congresso-de-educacao-ambiental", first.Slug)
	assert.Equal(t, "congresso-de-educacao-ambiental-1", second.Slug)
	assert.Equal(t, "congresso-de-educacao-ambiental-2", third.Slug)
	assert.Equal(t, models.EventDraft, first.Status)
	assert.Nil(t, first.PublishedAt)
}

func TestCreateEventPublishesWhenOpen(t *testing.T) {
	svc, owner := newEventService(t)

	event, err := svc.CreateEvent(context.Background(), EventInput{
		Title:       "Semana de Letras",
		Status:      models.EventOpen,
		StartDate:   fixedNow,
		EndDate:     fixedNow.Add(time.Hour),
		CreatedByID: owner.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, event.PublishedAt)
	assert.True(t, event.PublishedAt.Equal(fixedNow))
}

func TestCreateEventRejectsInvertedDates(t *testing.T) {
	svc, owner := newEventService(t)

	_, err := svc.CreateEvent(context.Background(), EventInput{
		Title:       "Datas Trocadas",
		StartDate:   fixedNow,
		EndDate:     fixedNow.Add(-time.Hour),
		CreatedByID: owner.ID,
	})
	assert.True(t, IsKind(err, KindValidation))
}

func TestUpdateEventKeepsOwnSlugAndPublishesOnce(t *testing.T) {
	svc, owner := newEventService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, EventInput{
		Title:       "Oficina de Escrita",
		StartDate:   fixedNow,
		EndDate:     fixedNow.Add(time.Hour),
		CreatedByID: owner.ID,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(ctx, event.ID, EventUpdate{Title: strPtr("Oficina de Escrita!"), Status: strPtr(models.EventOpen)})
	require.NoError(t, err)
	assert.Equal(t, "oficina-de-escrita", updated.Slug)
	require.NotNil(t, updated.PublishedAt)
	published := *updated.PublishedAt

	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = svc.UpdateEvent(ctx, event.ID, EventUpdate{Status: strPtr(models.EventClosed)})
	require.NoError(t, err)
	again, err := svc.UpdateEvent(ctx, event.ID, EventUpdate{Status: strPtr(models.EventOpen)})
	require.NoError(t, err)
	assert.True(t, again.PublishedAt.Equal(published))
}

func TestUpdateEventClearsOptionalFields(t *testing.T) {
	svc, owner := newEventService(t)
	ctx := context.Background()
	event := openEvent(t, svc.db, owner, func(e *models.Event) { e.Capacity = intPtr(30) })

	updated, err := svc.UpdateEvent(ctx, event.ID, EventUpdate{Clear: []string{"capacity", "registrationEnd", "submissionStart"}})
	require.NoError(t, err)
	assert.Nil(t, updated.Capacity)
	assert.Nil(t, updated.RegistrationEnd)
	assert.Nil(t, updated.SubmissionStart)
	assert.NotNil(t, updated.RegistrationStart)

	_, err = svc.UpdateEvent(ctx, event.ID, EventUpdate{Capacity: intPtr(10), Clear: []string{"capacity"}})
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.UpdateEvent(ctx, event.ID, EventUpdate{Clear: []string{"title"}})
	assert.True(t, IsKind(err, KindValidation))
}

func TestUpdateEventNotFound(t *testing.T) {
	svc, _ := newEventService(t)
	_, err := svc.UpdateEvent(context.Background(), "missing", EventUpdate{})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCanRegisterEachViolation(t *testing.T) {
	before := fixedNow.Add(time.Hour)
	after := fixedNow.Add(-time.Hour)

	tests := []struct {
		name   string
		mutate func(*models.Event)
		reason string
	}{
		{"registrations disabled", func(e *models.Event) { e.AllowRegistrations = false }, "Inscrições não permitidas"},
		{"not open", func(e *models.Event) { e.Status = models.EventDraft }, "Evento não está aberto para inscrições"},
		{"before start", func(e *models.Event) { e.RegistrationStart = &before }, "Período de inscrições ainda não começou"},
		{"after end", func(e *models.Event) { e.RegistrationEnd = &after }, "Período de inscrições encerrado"},
		{"capacity reached", func(e *models.Event) { e.Capacity = intPtr(0) }, "Evento com capacidade máxima atingida"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, owner := newEventService(t)
			event := openEvent(t, svc.db, owner, tt.mutate)

			got, err := svc.CanRegister(context.Background(), event.ID)
			require.NoError(t, err)
			assert.False(t, got.CanRegister)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestCanRegisterHappyPathAndMissingEvent(t *testing.T) {
	svc, owner := newEventService(t)
	event := openEvent(t, svc.db, owner, nil)

	got, err := svc.CanRegister(context.Background(), event.ID)
	require.NoError(t, err)
	assert.True(t, got.CanRegister)

	got, err = svc.CanRegister(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, got.CanRegister)
	assert.Equal(t, "Evento não encontrado", got.Reason)
}

func TestCanRegisterIgnoresCancelledSeats(t *testing.T) {
	svc, owner := newEventService(t)
	event := openEvent(t, svc.db, owner, func(e *models.Event) { e.Capacity = intPtr(1) })
	createRegistration(t, svc.db, event, createUser(t, svc.db, "gone", models.RoleParticipant), models.RegistrationCancelled)

	got, err := svc.CanRegister(context.Background(), event.ID)
	require.NoError(t, err)
	assert.True(t, got.CanRegister)
}

func TestCanUserManageEvent(t *testing.T) {
	svc, owner := newEventService(t)
	ctx := context.Background()
	event := openEvent(t, svc.db, owner, nil)

	admin := createUser(t, svc.db, "admin", models.RoleAdmin)
	otherCoord := createUser(t, svc.db, "coord2", models.RoleCoordinator)
	participant := createUser(t, svc.db, "ana", models.RoleParticipant)

	for _, tc := range []struct {
		user *models.User
		want bool
	}{
		{owner, true},
		{admin, true},
		{otherCoord, true},
		{participant, false},
	} {
		ok, err := svc.CanUserManageEvent(ctx, tc.user.ID, event.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.user.Name)
	}

	ok, err := svc.CanUserManageEvent(ctx, "ghost", event.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListEventsFilters(t *testing.T) {
	svc, owner := newEventService(t)
	ctx := context.Background()

	mk := func(title string, online bool, tags []string) {
		_, err := svc.CreateEvent(ctx, EventInput{
			Title:       title,
			Status:      models.EventOpen,
			StartDate:   fixedNow,
			EndDate:     fixedNow.Add(time.Hour),
			IsOnline:    online,
			Tags:        tags,
			CreatedByID: owner.ID,
		})
		require.NoError(t, err)
	}
	mk("Seminário de Linguística", false, []string{"letras", "linguistica"})
	mk("Webinar de Química", true, []string{"quimica"})
	mk("Oficina de Poesia", false, []string{"letras"})

	list, err := svc.ListEvents(ctx, EventFilters{Search: "LINGU"}, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.Equal(t, "Seminário de Linguística", list.Events[0].Title)

	online := true
	list, err = svc.ListEvents(ctx, EventFilters{IsOnline: &online}, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.True(t, list.Events[0].IsOnline)

	list, err = svc.ListEvents(ctx, EventFilters{Tags: []string{"letras"}}, 1, 10, "title")
	require.NoError(t, err)
	require.Len(t, list.Events, 2)
	assert.Equal(t, "Oficina de Poesia", list.Events[0].Title)

	list, err = svc.ListEvents(ctx, EventFilters{}, 1, 2, "")
	require.NoError(t, err)
	assert.Len(t, list.Events, 2)
	assert.EqualValues(t, 3, list.Pagination.Total)
	assert.Equal(t, 2, list.Pagination.TotalPages)
}

func TestPopularAndUpcomingEvents(t *testing.T) {
	svc, owner := newEventService(t)
	ctx := context.Background()

	quiet := openEvent(t, svc.db, owner, func(e *models.Event) { e.Slug = "quiet"; e.Title = "Quiet" })
	busy := openEvent(t, svc.db, owner, func(e *models.Event) { e.Slug = "busy"; e.Title = "Busy" })
	openEvent(t, svc.db, owner, func(e *models.Event) {
		e.Slug = "past"
		e.StartDate = fixedNow.Add(-72 * time.Hour)
	})
	for _, name := range []string{"a", "b"} {
		createRegistration(t, svc.db, busy, createUser(t, svc.db, name, models.RoleParticipant), models.RegistrationConfirmed)
	}
	createRegistration(t, svc.db, quiet, createUser(t, svc.db, "c", models.RoleParticipant), models.RegistrationConfirmed)

	popular, err := svc.GetPopularEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, busy.ID, popular[0].ID)
	assert.EqualValues(t, 2, popular[0].Counts.Registrations)

	upcoming, err := svc.GetUpcomingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, upcoming, 2)
}

func TestDeleteEventRemovesDependents(t *testing.T) {
	svc, owner := newEventService(t)
	ctx := context.Background()
	event := openEvent(t, svc.db, owner, nil)
	reg := createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationConfirmed)
	require.NoError(t, svc.db.Create(&models.Attendance{RegistrationID: reg.ID, CheckinAt: fixedNow, Method: models.MethodManual}).Error)

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))

	var n int64
	svc.db.Model(&models.Registration{}).Count(&n)
	assert.Zero(t, n)
	svc.db.Model(&models.Attendance{}).Count(&n)
	assert.Zero(t, n)

	assert.True(t, IsKind(svc.DeleteEvent(ctx, event.ID), KindNotFound))
}

func TestGetEventStats(t *testing.T) {
	svc, owner := newEventService(t)
	event := openEvent(t, svc.db, owner, nil)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "a", models.RoleParticipant), models.RegistrationConfirmed)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "b", models.RoleParticipant), models.RegistrationPending)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "c", models.RoleParticipant), models.RegistrationCancelled)

	stats, err := svc.GetEventStats(context.Background(), event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Registrations.Total)
	assert.EqualValues(t, 1, stats.Registrations.Confirmed)
	assert.EqualValues(t, 1, stats.Registrations.Pending)
	assert.EqualValues(t, 1, stats.Registrations.Cancelled)
}
