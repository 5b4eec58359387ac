package model

import "time"

// RootParentID is the parentId of files stored at the top level.
const RootParentID = "0"

// FileType enumerates the kinds of records a user can upload.
type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return true
	}
	return false
}

// File is a stored object owned by a single user.
// Folders never carry a LocalPath; LocalPath is the blob key for files and images.
type File struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Type      FileType  `json:"type"`
	IsPublic  bool      `json:"isPublic"`
	ParentID  string    `json:"parentId"`
	LocalPath string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// IsFolder reports whether f is a folder.
func (f *File) IsFolder() bool {
	return f.Type == FileTypeFolder
}

// ThumbnailJob is the message published for every image upload.
// The external worker writes one variant blob per thumbnail size next to the original.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}
