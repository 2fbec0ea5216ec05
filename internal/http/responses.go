package http

import (
	"time"

	"bookmarks-api/internal/domain"
	"bookmarks-api/internal/service"
	"bookmarks-api/internal/storage"
)

type BookmarkResponse struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// UserResponse deliberately has no password field.
type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type ExportResponse struct {
	Key       string `json:"key"`
	Location  string `json:"location"`
	URL       string `json:"url"`
	Count     int    `json:"count"`
	CreatedAt string `json:"createdAt"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func bookmarkToResponse(b domain.Bookmark) BookmarkResponse {
	return BookmarkResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		Title:       b.Title,
		Link:        b.Link,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

func exportToResponse(info service.ExportInfo) ExportResponse {
	return ExportResponse{
		Key:       info.Key,
		Location:  info.Location,
		URL:       info.URL,
		Count:     info.Count,
		CreatedAt: info.CreatedAt.Format(time.RFC3339),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
