// Package policy is the single authorization table for the API, keyed by
// (role, resource, action). Ownership rules (event creator, submission
// author) are enforced by the services on top of it.
package policy

import "ninma/models"

type Resource string

type Action string

const (
	ResourceEvent        Resource = "event"
	ResourceRegistration Resource = "registration"
	ResourceAttendance   Resource = "attendance"
	ResourceSubmission   Resource = "submission"
	ResourceReview       Resource = "review"
	ResourceCertificate  Resource = "certificate"
)

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	ActionManage Action = "manage"
	ActionExport Action = "export"
)

type rule struct {
	resource Resource
	action   Action
}

var (
	staff     = []string{models.RoleAdmin, models.RoleCoordinator}
	reviewers = []string{models.RoleAdmin, models.RoleCoordinator, models.RoleReviewer}
	everyone  = models.AllRoles
)

var table = map[rule][]string{
	{ResourceEvent, ActionCreate}: staff,
	{ResourceEvent, ActionUpdate}: staff,
	{ResourceEvent, ActionDelete}: staff,
	{ResourceEvent, ActionManage}: staff,

	{ResourceRegistration, ActionCreate}: everyone,
	{ResourceRegistration, ActionDelete}: everyone,
	{ResourceRegistration, ActionList}:   staff,
	{ResourceRegistration, ActionManage}: staff,

	{ResourceAttendance, ActionCreate}: everyone, // QR check-in; manual method is narrowed to staff
	{ResourceAttendance, ActionUpdate}: staff,
	{ResourceAttendance, ActionDelete}: staff,
	{ResourceAttendance, ActionList}:   staff,
	{ResourceAttendance, ActionManage}: staff,
	{ResourceAttendance, ActionExport}: staff,

	{ResourceSubmission, ActionCreate}: everyone,
	{ResourceSubmission, ActionRead}:   everyone,
	{ResourceSubmission, ActionUpdate}: everyone,
	{ResourceSubmission, ActionDelete}: everyone,
	{ResourceSubmission, ActionList}:   everyone,
	{ResourceSubmission, ActionManage}: staff,

	{ResourceReview, ActionCreate}: reviewers,
	{ResourceReview, ActionList}:   reviewers,

	{ResourceCertificate, ActionCreate}: staff,
	{ResourceCertificate, ActionRead}:   everyone,
	{ResourceCertificate, ActionList}:   everyone,
	{ResourceCertificate, ActionDelete}: staff,
	{ResourceCertificate, ActionManage}: staff,
}

// Can reports whether role may perform action on resource. Unknown pairs are denied.
func Can(role string, resource Resource, action Action) bool {
	if role == models.RoleAdmin {
		return true
	}
	for _, allowed := range table[rule{resource, action}] {
		if allowed == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether role is ADMIN or COORDINATOR.
func IsStaff(role string) bool {
	return role == models.RoleAdmin || role == models.RoleCoordinator
}

// CanReview reports whether role may review submissions at all.
func CanReview(role string) bool {
	return Can(role, ResourceReview, ActionCreate)
}
