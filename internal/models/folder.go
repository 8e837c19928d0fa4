package models

import (
	"sort"
	"time"
)

// FolderKind separates the per-user default folder from folders the user
// created explicitly.
type FolderKind string

const (
	FolderKindDefault FolderKind = "default"
	FolderKindUser    FolderKind = "user"
)

type Folder struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Kind      FolderKind `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (f Folder) IsDefault() bool {
	return f.Kind == FolderKindDefault
}

// SortFolders orders folders for display: the default folder first, then by
// creation time, oldest first.
func SortFolders(folders []Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		a, b := folders[i], folders[j]
		if a.IsDefault() != b.IsDefault() {
			return a.IsDefault()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
