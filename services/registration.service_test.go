package services

import (
	"context"
	"testing"

	"ninma/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistrationService(t *testing.T) (*RegistrationService, *models.User) {
	t.Helper()
	db := newTestDB(t)
	events := NewEventService(db)
	events.now = clock
	svc := NewRegistrationService(db, events)
	svc.now = clock
	return svc, createUser(t, db, "coord", models.RoleCoordinator)
}

func TestRegisterConfirmsUnlessApprovalRequired(t *testing.T) {
	svc, owner := newRegistrationService(t)
	ctx := context.Background()
	user := createUser(t, svc.db, "ana", models.RoleParticipant)

	open := openEvent(t, svc.db, owner, nil)
	reg, err := svc.Register(ctx, open.ID, user.ID, "vegetariana", "")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, reg.Status)
	assert.True(t, reg.Confirmed)
	require.NotNil(t, reg.ConfirmedAt)

	gated := openEvent(t, svc.db, owner, func(e *models.Event) {
		e.Slug = "gated"
		e.RequiresApproval = true
	})
	reg, err = svc.Register(ctx, gated.ID, user.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.Nil(t, reg.ConfirmedAt)

	approved, err := svc.Approve(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, approved.Status)

	_, err = svc.Approve(ctx, reg.ID)
	assert.True(t, IsKind(err, KindConflict))
}

func TestRegisterTwiceConflicts(t *testing.T) {
	svc, owner := newRegistrationService(t)
	ctx := context.Background()
	event := openEvent(t, svc.db, owner, nil)
	user := createUser(t, svc.db, "ana", models.RoleParticipant)

	_, err := svc.Register(ctx, event.ID, user.ID, "", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, event.ID, user.ID, "", "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, "Você já está inscrito neste evento!", err.Error())
}

func TestCapacityOneRejectsSecondUser(t *testing.T) {
	svc, owner := newRegistrationService(t)
	ctx := context.Background()
	event := openEvent(t, svc.db, owner, func(e *models.Event) { e.Capacity = intPtr(1) })

	createRegistration(t, svc.db, event, createUser(t, svc.db, "first", models.RoleParticipant), models.RegistrationConfirmed)

	_, err := svc.Register(ctx, event.ID, createUser(t, svc.db, "second", models.RoleParticipant).ID, "", "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, "Evento com capacidade máxima atingida", err.Error())
}

func TestCancelAndReactivate(t *testing.T) {
	svc, owner := newRegistrationService(t)
	ctx := context.Background()
	event := openEvent(t, svc.db, owner, nil)
	user := createUser(t, svc.db, "ana", models.RoleParticipant)

	first, err := svc.Register(ctx, event.ID, user.ID, "", "")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, event.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = svc.Cancel(ctx, event.ID, user.ID)
	assert.True(t, IsKind(err, KindConflict))

	again, err := svc.Register(ctx, event.ID, user.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.RegistrationConfirmed, again.Status)
	assert.Nil(t, again.CancelledAt)

	var n int64
	svc.db.Model(&models.Registration{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestRegisterMissingEvent(t *testing.T) {
	svc, _ := newRegistrationService(t)
	_, err := svc.Register(context.Background(), "nope", "user", "", "")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestListEventRegistrationsSummary(t *testing.T) {
	svc, owner := newRegistrationService(t)
	event := openEvent(t, svc.db, owner, nil)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationConfirmed)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "bruno", models.RoleParticipant), models.RegistrationPending)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "carla", models.RoleParticipant), models.RegistrationAttended)

	list, err := svc.ListEventRegistrations(context.Background(), event.ID, RegistrationFilters{Search: "BRU"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Registrations, 1)
	assert.Equal(t, "bruno", list.Registrations[0].User.Name)

	assert.EqualValues(t, 3, list.Summary.Total)
	assert.EqualValues(t, 1, list.Summary.Confirmed)
	assert.EqualValues(t, 1, list.Summary.Pending)
	assert.EqualValues(t, 1, list.Summary.Attended)
	assert.EqualValues(t, 1, list.Pagination.Total)
}
