package policy

import (
	"testing"

	"ninma/models"

	"github.com/stretchr/testify/assert"
)

func TestCanAdminAlwaysAllowed(t *testing.T) {
	assert.True(t, Can(models.RoleAdmin, ResourceEvent, ActionDelete))
	assert.True(t, Can(models.RoleAdmin, Resource("unknown"), Action("anything")))
}

func TestCanRoleMatrix(t *testing.T) {
	cases := []struct {
		role     string
		resource Resource
		action   Action
		want     bool
	}{
		{models.RoleCoordinator, ResourceEvent, ActionCreate, true},
		{models.RoleParticipant, ResourceEvent, ActionCreate, false},
		{models.RoleReviewer, ResourceEvent, ActionUpdate, false},
		{models.RoleParticipant, ResourceRegistration, ActionCreate, true},
		{models.RoleParticipant, ResourceRegistration, ActionList, false},
		{models.RoleParticipant, ResourceAttendance, ActionCreate, true},
		{models.RoleParticipant, ResourceAttendance, ActionExport, false},
		{models.RoleCoordinator, ResourceAttendance, ActionExport, true},
		{models.RoleReviewer, ResourceReview, ActionCreate, true},
		{models.RoleParticipant, ResourceReview, ActionCreate, false},
		{models.RoleParticipant, ResourceCertificate, ActionCreate, false},
		{models.RoleParticipant, ResourceCertificate, ActionRead, true},
		{models.RoleCoordinator, ResourceCertificate, ActionDelete, true},
		{"", ResourceSubmission, ActionCreate, false},
	}

	for _, tc := range cases {
		got := Can(tc.role, tc.resource, tc.action)
		assert.Equalf(t, tc.want, got, "Can(%q, %s, %s)", tc.role, tc.resource, tc.action)
	}
}

func TestCanReview(t *testing.T) {
	assert.True(t, CanReview(models.RoleReviewer))
	assert.True(t, CanReview(models.RoleCoordinator))
	assert.False(t, CanReview(models.RoleParticipant))
}
