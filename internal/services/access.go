package services

import (
	"github.com/frosty888/eProtokoll/internal/db/models"
)

// Read and write permission rules live here and nowhere else. Handlers and
// services call these instead of comparing roles inline.

// CanView decides read access from classification, role and the
// actor/uploader relationship. Uploaders always see their own documents.
func CanView(classification models.Classification, role models.UserRole, actorID, uploaderID uint) bool {
	if role == models.RoleAdmin {
		return true
	}
	if actorID == uploaderID {
		return true
	}
	switch classification {
	case models.ClassPublic:
		return true
	case models.ClassRestricted:
		return role == models.RoleManager
	case models.ClassSecret:
		return false
	}
	return false
}

// CanModerate gates status changes and delegation. STAFF may never do either.
func CanModerate(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleManager
}

// CanRespond allows the uploader, anyone in the assignment set, and
// moderators.
func CanRespond(doc *models.Document, actorID uint, role models.UserRole) bool {
	if CanModerate(role) {
		return true
	}
	if doc.UploadedBy == actorID {
		return true
	}
	return doc.IsAssignedTo(actorID)
}

// VisibleClassifications returns the classification tiers a role may list.
// Documents the actor uploaded are visible regardless and are handled by the
// query separately.
func VisibleClassifications(role models.UserRole) []models.Classification {
	switch role {
	case models.RoleAdmin:
		return []models.Classification{models.ClassPublic, models.ClassRestricted, models.ClassSecret}
	case models.RoleManager:
		return []models.Classification{models.ClassPublic, models.ClassRestricted}
	default:
		return []models.Classification{models.ClassPublic}
	}
}
