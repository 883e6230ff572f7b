package model

import "time"

// Page is one markdown file, identified by its note name (file path without
// extension). A page owns an ordered list of chunks.
type Page struct {
	Name       string    `json:"name"`
	FilePath   string    `json:"file_path"`
	FolderPath string    `json:"folder_path"`
	IsIndex    bool      `json:"is_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tag is a "#word" hashtag, deduplicated by name across the whole space.
type Tag struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Folder is a directory under the space root. HasIndexPage records whether
// a sibling page "<folder>.md" with the folder's name sits next to it.
type Folder struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	HasIndexPage bool      `json:"has_index_page"`
	CreatedAt    time.Time `json:"created_at"`
}
