package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/adapters/storage"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/internal/markdown"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

// Service manages page assets and their stored bytes.
type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*Asset, error)
	List(ctx context.Context, pageID uuid.UUID) ([]*Asset, error)
	Get(ctx context.Context, id uuid.UUID) (*Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPage(ctx context.Context, pageID uuid.UUID) error
	Open(ctx context.Context, filename string) (*File, error)
	RenderRefs(ctx context.Context, pageID uuid.UUID) ([]markdown.AssetRef, error)
}

// UploadRequest describes one incoming file. Size is the declared length
// and may be zero when unknown; the stream is capped either way.
type UploadRequest struct {
	PageID   uuid.UUID
	Filename string
	MimeType string
	Size     int64
	AltText  string
	Body     io.Reader
}

// File is an open stored asset.
type File struct {
	io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

// PageChecker confirms a page exists before assets are attached to it.
type PageChecker interface {
	PageExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PageCheckerFunc adapts a function to PageChecker.
type PageCheckerFunc func(ctx context.Context, id uuid.UUID) (bool, error)

func (f PageCheckerFunc) PageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f(ctx, id)
}

// BlobStore holds the asset bytes.
type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader) (storage.SaveResult, error)
	Open(name string) (*os.File, error)
	Remove(name string) error
}

// ServiceOption configures the service.
type ServiceOption func(*service)

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithBaseURL sets the origin prefixed to /assets/<name>. Empty keeps URLs
// relative.
func WithBaseURL(base string) ServiceOption {
	return func(s *service) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithPageChecker enables the page existence check on upload.
func WithPageChecker(checker PageChecker) ServiceOption {
	return func(s *service) {
		s.pages = checker
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.OrNoOp(logger)
	}
}

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// IDGenerator returns the identifier used for both the row and the stored
// file name.
type IDGenerator func() uuid.UUID

// WithIDGenerator overrides uuid.New.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithUploadHook registers fn to observe every stored asset.
func WithUploadHook(fn func(*Asset)) ServiceOption {
	return func(s *service) {
		s.onUpload = fn
	}
}

type service struct {
	repo     Repository
	blobs    BlobStore
	pages    PageChecker
	maxBytes int64
	baseURL  string
	now      func() time.Time
	id       IDGenerator
	logger   interfaces.Logger
	onUpload func(*Asset)
}

// NewService wires the asset repository and blob store.
func NewService(repo Repository, blobs BlobStore, opts ...ServiceOption) Service {
	s := &service{
		repo:     repo,
		blobs:    blobs,
		maxBytes: DefaultMaxBytes,
		now:      func() time.Time { return time.Now().UTC() },
		id:       uuid.New,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PublicURL returns the URL an asset stored as name is served from.
func (s *service) PublicURL(name string) string {
	return s.baseURL + "/assets/" + name
}

func (s *service) Upload(ctx context.Context, req UploadRequest) (*Asset, error) {
	if req.PageID == uuid.Nil {
		return nil, ErrPageRequired
	}
	if req.Body == nil {
		return nil, ErrFileRequired
	}
	original := strings.TrimSpace(req.Filename)
	if original == "" {
		return nil, ErrFilenameRequired
	}
	if req.Size > s.maxBytes {
		return nil, &SizeError{Limit: s.maxBytes, Size: req.Size}
	}
	mimeType := NormalizeMIME(req.MimeType)
	category := Classify(mimeType)
	if category == CategoryOther {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, req.MimeType)
	}

	if s.pages != nil {
		ok, err := s.pages.PageExists(ctx, req.PageID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &NotFoundError{Resource: "page", Key: req.PageID.String()}
		}
	}

	id := s.id()
	storedName := id.String() + Extension(mimeType, original)
	logger := logging.WithFields(s.logger, map[string]any{
		"page_id":         req.PageID.String(),
		"stored_filename": storedName,
	})

	saved, err := s.blobs.Save(ctx, storedName, &cappedReader{r: req.Body, remaining: s.maxBytes})
	if err != nil {
		if errors.Is(err, ErrAssetTooLarge) {
			return nil, &SizeError{Limit: s.maxBytes}
		}
		logger.Error("assets.upload.store_failed", "error", err)
		return nil, err
	}

	record := &Asset{
		ID:             id,
		PageID:         req.PageID,
		Filename:       original,
		StoredFilename: saved.Name,
		MimeType:       mimeType,
		Size:           saved.Size,
		Category:       category,
		PublicURL:      s.PublicURL(saved.Name),
		Checksum:       saved.Checksum,
		CreatedAt:      s.now(),
	}
	if alt := strings.TrimSpace(req.AltText); alt != "" {
		record.AltText = &alt
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if rmErr := s.blobs.Remove(saved.Name); rmErr != nil {
			logger.Warn("assets.upload.cleanup_failed", "error", rmErr)
		}
		return nil, err
	}
	logger.Info("assets.uploaded", "filename", original, "size", saved.Size, "category", string(category))
	if s.onUpload != nil {
		s.onUpload(created)
	}
	return created, nil
}

func (s *service) List(ctx context.Context, pageID uuid.UUID) ([]*Asset, error) {
	return s.repo.ListByPage(ctx, pageID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes the row, then the stored file. A file that is already gone
// does not fail the call.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFile(record)
	return nil
}

func (s *service) DeleteByPage(ctx context.Context, pageID uuid.UUID) error {
	removed, err := s.repo.DeleteByPage(ctx, pageID)
	if err != nil {
		return err
	}
	for _, record := range removed {
		s.removeFile(record)
	}
	return nil
}

func (s *service) removeFile(record *Asset) {
	if err := s.blobs.Remove(record.StoredFilename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("assets.delete.file_failed", "stored_filename", record.StoredFilename, "error", err)
	}
}

// Open resolves filename to its stored bytes. Only the base name is used.
func (s *service) Open(ctx context.Context, filename string) (*File, error) {
	name, err := storage.CleanName(filename)
	if err != nil {
		return nil, &NotFoundError{Resource: "asset", Key: filename}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.blobs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Resource: "asset", Key: name}
		}
		return nil, err
	}
	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return &File{ReadCloser: f, Name: name, ContentType: ContentType(name), Size: size}, nil
}

// RenderRefs lists the page's assets in the shape the markdown renderer
// expects, in creation order.
func (s *service) RenderRefs(ctx context.Context, pageID uuid.UUID) ([]markdown.AssetRef, error) {
	records, err := s.repo.ListByPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	refs := make([]markdown.AssetRef, 0, len(records))
	for _, record := range records {
		ref := markdown.AssetRef{Filename: record.Filename, PublicURL: record.PublicURL}
		if record.AltText != nil {
			ref.AltText = *record.AltText
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// cappedReader fails with ErrAssetTooLarge once more than remaining bytes
// have been read.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrAssetTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, ErrAssetTooLarge
	}
	return n, err
}
