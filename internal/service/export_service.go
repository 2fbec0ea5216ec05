package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"bookmarks-api/internal/domain"
	"bookmarks-api/internal/storage"
)

// ExportInfo describes a stored bookmark snapshot.
type ExportInfo struct {
	Key       string
	Location  string
	URL       string
	Count     int
	CreatedAt time.Time
}

// ExportOptions configures where exports are written.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// ExportService writes JSON snapshots of a caller's bookmarks to object storage.
type ExportService interface {
	Export(ctx context.Context, callerID string) (*ExportInfo, error)
	ListExports(ctx context.Context, callerID string) ([]storage.ObjectInfo, error)
	PurgeExports(ctx context.Context, callerID string) error
}

type exportService struct {
	bookmarks BookmarkService
	store     storage.Service
	opts      ExportOptions
	now       func() time.Time
}

// NewExportService returns a service that reports ErrExportsDisabled when store is nil
// or no bucket is configured.
func NewExportService(bookmarks BookmarkService, store storage.Service, opts ExportOptions) ExportService {
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	return &exportService{
		bookmarks: bookmarks,
		store:     store,
		opts:      opts,
		now:       time.Now,
	}
}

type exportDocument struct {
	UserID     string           `json:"userId"`
	ExportedAt string           `json:"exportedAt"`
	Bookmarks  []exportBookmark `json:"bookmarks"`
}

type exportBookmark struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func (s *exportService) Export(ctx context.Context, callerID string) (*ExportInfo, error) {
	if !s.enabled() {
		return nil, ErrExportsDisabled
	}

	prefix, err := s.userPrefix(callerID)
	if err != nil {
		return nil, err
	}

	bookmarks, err := s.bookmarks.List(ctx, callerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	payload, err := json.Marshal(newExportDocument(callerID, now, bookmarks))
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := path.Join(prefix, fmt.Sprintf("%d.json", now.UnixNano()))
	location, err := s.store.PutObject(ctx, bytes.NewReader(payload), storage.PutOptions{
		Bucket:      s.opts.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	url, err := s.store.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("export url: %w", err)
	}

	return &ExportInfo{
		Key:       key,
		Location:  location,
		URL:       url,
		Count:     len(bookmarks),
		CreatedAt: now,
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, callerID string) ([]storage.ObjectInfo, error) {
	if !s.enabled() {
		return nil, ErrExportsDisabled
	}
	prefix, err := s.userPrefix(callerID)
	if err != nil {
		return nil, err
	}
	objects, err := s.store.ListObjects(ctx, s.opts.Bucket, prefix+"/")
	if err != nil {
		return nil, err
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}
	return objects, nil
}

func (s *exportService) PurgeExports(ctx context.Context, callerID string) error {
	if !s.enabled() {
		return ErrExportsDisabled
	}
	prefix, err := s.userPrefix(callerID)
	if err != nil {
		return err
	}
	return s.store.DeletePrefix(ctx, s.opts.Bucket, prefix+"/")
}

func (s *exportService) enabled() bool {
	return s.store != nil && s.opts.Bucket != ""
}

// userPrefix scopes every object to one caller; an empty id would widen it to all users.
func (s *exportService) userPrefix(callerID string) (string, error) {
	if strings.TrimSpace(callerID) == "" || strings.ContainsAny(callerID, "/.") {
		return "", ErrForbidden
	}
	return path.Join(s.opts.KeyPrefix, callerID), nil
}

func newExportDocument(userID string, at time.Time, bookmarks []domain.Bookmark) exportDocument {
	doc := exportDocument{
		UserID:     userID,
		ExportedAt: at.Format(time.RFC3339),
		Bookmarks:  make([]exportBookmark, len(bookmarks)),
	}
	for i, b := range bookmarks {
		doc.Bookmarks[i] = exportBookmark{
			ID:          b.ID,
			Title:       b.Title,
			Link:        b.Link,
			Description: b.Description,
			CreatedAt:   b.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
		}
	}
	return doc
}
