package services

import (
	"fmt"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

// assertFileAvailable rejects soft-deleted records.
func assertFileAvailable(file *models.File) error {
	if file.Deleted {
		return fmt.Errorf("%w: %s", common.ErrFileNotAvailable, file.Name)
	}
	return nil
}

// checkReadPermission allows the owner, an admin, or anyone when the file
// is shared.
func checkReadPermission(user *models.User, file *models.File) error {
	if file.Shared || user.Admin || file.UserID == user.ID {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrPermissionDenied, file.Name)
}

// checkWritePermission allows the owner or an admin; the shared flag grants
// read visibility only.
func checkWritePermission(user *models.User, file *models.File) error {
	if user.Admin || file.UserID == user.ID {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrPermissionDenied, file.Name)
}

// checkJobPermission authorizes the caller against an in-flight job's
// owning context.
func checkJobPermission(user *models.User, job *models.Job) error {
	if user.Admin || job.UserID == user.ID {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrPermissionDenied, job.Target)
}

// deleterRole records which role performed a delete: the owner deletes as
// USER, anyone else must be an admin.
func deleterRole(user *models.User, file *models.File) models.Deleter {
	if file.UserID == user.ID {
		return models.DeleterUser
	}
	return models.DeleterAdmin
}
