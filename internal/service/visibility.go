package service

import "filevault/internal/model"

// CanRead reports whether userID may see f. Anonymous callers pass an empty userID.
func CanRead(f *model.File, userID string) bool {
	if f.IsPublic {
		return true
	}
	return userID != "" && f.UserID == userID
}
