package service

import (
	"context"
	"fmt"

	"mileage/auth"
)

const (
	MessageNoUser        = "No authenticated user found."
	MessageNoEmail       = "Google Account email not found."
	MessageBackupOK      = "Backup successful."
	MessageBackupFailed  = "Backup failed."
	MessageRestoreOK     = "Restore successful."
	MessageRestoreFailed = "Restore failed."
)

// ManualBackup uploads vehicles and trips on request.
func (s *Service) ManualBackup(ctx context.Context, id *auth.Identity) (bool, string) {
	if _, err := userOf(id); err != nil {
		return false, MessageNoUser
	}
	if id.Email == "" {
		return false, MessageNoEmail
	}
	if !s.repo.BackupAll(ctx, id.ID, id.Email) {
		return false, MessageBackupFailed
	}
	return true, MessageBackupOK
}

// Restore replays the user's backup into local storage. With replace set the
// user's trips and vehicles are cleared first. Items dropped as invalid are
// counted in the message.
func (s *Service) Restore(ctx context.Context, id *auth.Identity, replace bool) (bool, string) {
	if _, err := userOf(id); err != nil {
		return false, MessageNoUser
	}
	if id.Email == "" {
		return false, MessageNoEmail
	}
	res := s.repo.RestoreFromDrive(ctx, id.ID, id.Email, replace)
	if !res.OK {
		return false, MessageRestoreFailed
	}
	if res.SkippedVehicles == 0 && res.SkippedTrips == 0 {
		return true, MessageRestoreOK
	}
	return true, fmt.Sprintf("%s Skipped %d invalid vehicle(s) and %d trip(s).", MessageRestoreOK, res.SkippedVehicles, res.SkippedTrips)
}
