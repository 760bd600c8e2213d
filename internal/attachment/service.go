package attachment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abduss/taskhub/internal/apperr"
	"github.com/abduss/taskhub/internal/blob"
	"github.com/abduss/taskhub/internal/logger"
	"github.com/abduss/taskhub/internal/metrics"
)

const (
	defaultMaxUploadBytes  = 100 * 1024 * 1024 // 100MB
	defaultPageSize        = 10
	defaultMaxPageSize     = 100
	fallbackMimeType       = "application/octet-stream"
	maxStoredFileNameBytes = 255
)

// Operation names used in logs and metrics.
const (
	OpCreate   = "create"
	OpFindByID = "find_by_id"
	OpFindAll  = "find_all"
	OpUpdate   = "update"
	OpDelete   = "delete"
)

type metadataStore interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
	Get(ctx context.Context, id uuid.UUID, inc Include) (Attachment, error)
	List(ctx context.Context, limit, offset int, inc Include) ([]Attachment, int64, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type referenceChecker interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	TaskExists(ctx context.Context, id uuid.UUID) (bool, error)
	ProjectExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Options tunes upload and paging limits. Zero values fall back to defaults.
type Options struct {
	MaxUploadBytes  int64
	DefaultPageSize int
	MaxPageSize     int
}

// Service keeps attachment content and metadata consistent.
//
// Content is written to the blob store before the metadata transaction starts.
// If the transaction fails the blob is removed again, so a committed row always
// points at stored content and a failed create leaves nothing behind.
type Service struct {
	repo  metadataStore
	refs  referenceChecker
	blobs blob.Store
	log   *zap.Logger

	maxUploadBytes  int64
	defaultPageSize int
	maxPageSize     int
}

// NewService constructs an attachment service.
func NewService(repo metadataStore, refs referenceChecker, blobs blob.Store, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		repo:            repo,
		refs:            refs,
		blobs:           blobs,
		log:             log.Named("attachment"),
		maxUploadBytes:  opts.MaxUploadBytes,
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = defaultMaxPageSize
	}
	if s.defaultPageSize <= 0 {
		s.defaultPageSize = defaultPageSize
	}
	if s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = s.maxPageSize
	}
	return s
}

// Create stores the content and then records its metadata.
func (s *Service) Create(ctx context.Context, in CreateInput) (_ Attachment, err error) {
	defer s.observe(OpCreate, &err)

	if err := s.validateCreate(in); err != nil {
		return Attachment{}, err
	}
	if err := s.checkCreator(ctx, in.CreatorID); err != nil {
		return Attachment{}, err
	}
	if err := s.checkOwners(ctx, in.TaskID, in.ProjectID); err != nil {
		return Attachment{}, err
	}

	fileName := sanitizeFilename(in.FileName)
	mimeType, err := normalizeMimeType(in.MimeType)
	if err != nil {
		return Attachment{}, err
	}

	storagePath, err := s.blobs.Put(ctx, in.Content, in.SizeBytes, fileName, mimeType)
	if err != nil {
		return Attachment{}, apperr.StorageWrite(err)
	}

	record := Attachment{
		ID:          uuid.New(),
		FileName:    fileName,
		StoragePath: storagePath,
		MimeType:    mimeType,
		SizeBytes:   in.SizeBytes,
		CreatorID:   in.CreatorID,
		TaskID:      in.TaskID,
		ProjectID:   in.ProjectID,
	}

	var stored Attachment
	err = s.repo.WithTx(ctx, func(tx Tx) error {
		var txErr error
		stored, txErr = tx.Create(ctx, record)
		return txErr
	})
	if err != nil {
		s.compensate(ctx, OpCreate, record.ID, storagePath, err)
		return Attachment{}, persistenceError(err)
	}

	full, err := s.repo.Get(ctx, stored.ID, IncludeAll)
	if err != nil {
		// The row is committed; hand back what the insert returned.
		s.logger(ctx).Warn("reload created attachment",
			zap.String("attachment_id", stored.ID.String()),
			zap.Error(err),
		)
		return stored, nil
	}
	return full, nil
}

// FindByID returns one attachment with the requested summaries.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID, inc Include) (_ Attachment, err error) {
	defer s.observe(OpFindByID, &err)

	a, err := s.repo.Get(ctx, id, inc)
	if err != nil {
		return Attachment{}, readError(err)
	}
	return a, nil
}

// FindAll returns one page of attachments. Out of range page and limit values are clamped.
func (s *Service) FindAll(ctx context.Context, page, limit int, inc Include) (_ Page, err error) {
	defer s.observe(OpFindAll, &err)

	page, limit = s.normalizePage(page, limit)
	items, total, err := s.repo.List(ctx, limit, pageOffset(page, limit), inc)
	if err != nil {
		return Page{}, apperr.Persistence(err)
	}
	if items == nil {
		items = []Attachment{}
	}
	return Page{
		Items:       items,
		TotalItems:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Limit:       limit,
	}, nil
}

// Update re-associates an attachment with a task or project. Content is never touched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (_ Attachment, err error) {
	defer s.observe(OpUpdate, &err)

	if err := validateUpdate(in); err != nil {
		return Attachment{}, err
	}
	if _, err := s.repo.Get(ctx, id, IncludeNone); err != nil {
		return Attachment{}, readError(err)
	}
	if err := s.checkOwners(ctx, in.TaskID, in.ProjectID); err != nil {
		return Attachment{}, err
	}

	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, ErrAttachmentNotFound) {
			return Attachment{}, apperr.NotFound("attachment not found")
		}
		return Attachment{}, persistenceError(err)
	}

	full, err := s.repo.Get(ctx, id, IncludeAll)
	if err != nil {
		s.logger(ctx).Warn("reload updated attachment",
			zap.String("attachment_id", id.String()),
			zap.Error(err),
		)
		return updated, nil
	}
	return full, nil
}

// Delete removes the content first and the metadata row second. If the content
// cannot be removed the row is kept so the attachment stays intact.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer s.observe(OpDelete, &err)

	a, err := s.repo.Get(ctx, id, IncludeNone)
	if err != nil {
		return readError(err)
	}

	if err := s.blobs.Delete(ctx, a.StoragePath); err != nil {
		return apperr.StorageDelete(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrAttachmentNotFound) {
			return apperr.NotFound("attachment not found")
		}
		s.logger(ctx).Error("attachment row left without content",
			zap.String("attachment_id", id.String()),
			zap.String("storage_path", a.StoragePath),
			zap.Error(err),
		)
		return apperr.Persistence(err)
	}
	return nil
}

// compensate removes content written for a create whose metadata never committed.
// It runs even when ctx is already cancelled.
func (s *Service) compensate(ctx context.Context, op string, id uuid.UUID, storagePath string, cause error) {
	cctx := context.WithoutCancel(ctx)

	log := s.logger(ctx).With(
		zap.String("operation", op),
		zap.String("attachment_id", id.String()),
		zap.String("storage_path", storagePath),
		zap.NamedError("cause", cause),
	)

	if err := s.blobs.Delete(cctx, storagePath); err != nil {
		metrics.ObserveCompensation(op, metrics.CompensationFailed)
		log.Error("compensating blob delete failed; content orphaned", zap.Error(err))
		return
	}
	metrics.ObserveCompensation(op, metrics.CompensationSucceeded)
	log.Info("compensating blob delete succeeded")
}

func (s *Service) checkCreator(ctx context.Context, id uuid.UUID) error {
	ok, err := s.refs.UserExists(ctx, id)
	if err != nil {
		return apperr.Persistence(fmt.Errorf("check creator: %w", err))
	}
	if !ok {
		return apperr.NotFound("creator not found")
	}
	return nil
}

func (s *Service) checkOwners(ctx context.Context, taskID, projectID *uuid.UUID) error {
	if taskID != nil {
		ok, err := s.refs.TaskExists(ctx, *taskID)
		if err != nil {
			return apperr.Persistence(fmt.Errorf("check task: %w", err))
		}
		if !ok {
			return apperr.NotFound("task not found")
		}
	}
	if projectID != nil {
		ok, err := s.refs.ProjectExists(ctx, *projectID)
		if err != nil {
			return apperr.Persistence(fmt.Errorf("check project: %w", err))
		}
		if !ok {
			return apperr.NotFound("project not found")
		}
	}
	return nil
}

func (s *Service) validateCreate(in CreateInput) error {
	var fields []apperr.FieldError
	if in.Content == nil {
		fields = append(fields, apperr.FieldError{Field: "content", Error: "is required"})
	}
	fields = append(fields, validateStruct(in)...)
	if in.SizeBytes > s.maxUploadBytes {
		fields = append(fields, apperr.FieldError{
			Field: "size_bytes",
			Error: fmt.Sprintf("must not exceed %d bytes", s.maxUploadBytes),
		})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid attachment", fields...)
	}
	return nil
}

func validateUpdate(in UpdateInput) error {
	var fields []apperr.FieldError
	if in.TaskID != nil && in.ClearTask {
		fields = append(fields, apperr.FieldError{Field: "task_id", Error: "cannot be set and cleared together"})
	}
	if in.ProjectID != nil && in.ClearProject {
		fields = append(fields, apperr.FieldError{Field: "project_id", Error: "cannot be set and cleared together"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid attachment update", fields...)
	}
	if !in.setsTask() && !in.setsProject() {
		return apperr.Validation("no changes requested")
	}
	return nil
}

func (s *Service) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return page, limit
}

func (s *Service) observe(op string, errp *error) {
	if *errp == nil {
		metrics.ObserveAttachmentOp(op, metrics.OutcomeSuccess, "")
		return
	}
	metrics.ObserveAttachmentOp(op, metrics.OutcomeFailure, string(apperr.KindOf(*errp)))
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.log)
}

// pageOffset returns the row offset of page, saturating instead of wrapping
// for pages far beyond any stored row.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt32/limit {
		return math.MaxInt32
	}
	return (page - 1) * limit
}

func totalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

func readError(err error) error {
	if errors.Is(err, ErrAttachmentNotFound) {
		return apperr.NotFound("attachment not found")
	}
	return apperr.Persistence(err)
}

func persistenceError(err error) error {
	switch {
	case errors.Is(err, ErrStoragePathExists):
		return apperr.Conflict("storage path already referenced", err)
	case errors.Is(err, ErrReferenceNotFound):
		return apperr.NotFound("referenced user, task or project not found")
	default:
		return apperr.Persistence(err)
	}
}

func normalizeMimeType(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallbackMimeType, nil
	}
	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", apperr.Validation("invalid attachment", apperr.FieldError{Field: "mime_type", Error: "is not a valid media type"})
	}
	return mime.FormatMediaType(mediaType, params), nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	name = path.Base(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	if len(name) > maxStoredFileNameBytes {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = strings.ToValidUTF8(name[:maxStoredFileNameBytes-len(ext)], "") + ext
	}
	return name
}
