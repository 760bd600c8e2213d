// Package presigned issues time-limited download links for attachment content.
package presigned

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abduss/taskhub/internal/apperr"
	"github.com/abduss/taskhub/internal/attachment"
	"github.com/abduss/taskhub/internal/blob"
)

const minTTL = time.Second

type attachmentFinder interface {
	FindByID(ctx context.Context, id uuid.UUID, inc attachment.Include) (attachment.Attachment, error)
}

// Link is a presigned GET URL and the moment it stops working.
type Link struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	attachments attachmentFinder
	signer      blob.Presigner
	ttl         time.Duration
	maxTTL      time.Duration
	now         func() time.Time
}

// NewService builds a link service. signer may be nil when the blob backend
// cannot presign, in which case every request reports KindUnsupported.
func NewService(attachments attachmentFinder, signer blob.Presigner, ttl, maxTTL time.Duration) *Service {
	if maxTTL <= 0 {
		maxTTL = ttl
	}
	return &Service{
		attachments: attachments,
		signer:      signer,
		ttl:         ttl,
		maxTTL:      maxTTL,
		now:         time.Now,
	}
}

// SignerFor returns store as a Presigner when it supports presigning.
func SignerFor(store blob.Store) blob.Presigner {
	if p, ok := store.(blob.Presigner); ok {
		return p
	}
	return nil
}

// DownloadURL returns a link to the content of attachment id. A zero ttl uses the default.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID, ttl time.Duration) (Link, error) {
	if ttl == 0 {
		ttl = s.ttl
	}
	if ttl < minTTL || ttl > s.maxTTL {
		return Link{}, apperr.Validation("invalid ttl", apperr.FieldError{
			Field: "ttl",
			Error: "must be between " + minTTL.String() + " and " + s.maxTTL.String(),
		})
	}
	if s.signer == nil {
		return Link{}, apperr.Unsupported("blob backend does not support download links")
	}

	a, err := s.attachments.FindByID(ctx, id, attachment.IncludeNone)
	if err != nil {
		return Link{}, err
	}

	issued := s.now()
	u, err := s.signer.PresignGet(ctx, a.StoragePath, a.FileName, ttl)
	if err != nil {
		return Link{}, apperr.Internal(err)
	}
	return Link{URL: u, Method: "GET", ExpiresAt: issued.Add(ttl).UTC()}, nil
}
