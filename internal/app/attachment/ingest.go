package attachment

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ichats/internal/pkg/errs"
	"ichats/internal/pkg/logx"
)

// Ingestor turns inbound attachment payloads into stored blobs with public URLs.
// Storage must succeed before the caller writes any message record: a message
// referencing a missing blob is the failure mode this ordering avoids.
type Ingestor struct {
	store  BlobStore
	logger zerolog.Logger
}

// NewIngestor constructs an Ingestor on top of the given blob store.
func NewIngestor(store BlobStore) *Ingestor {
	return &Ingestor{
		store:  store,
		logger: logx.Logger().With().Str("component", "attachment").Logger(),
	}
}

// IngestReader stores a multipart file part and returns its classified reference.
func (i *Ingestor) IngestReader(ctx context.Context, body io.Reader, name, mimeType string) (*Attachment, *errs.CustomError) {
	if body == nil || strings.TrimSpace(name) == "" {
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	return i.save(ctx, body, name, mimeType)
}

// IngestInline decodes an inline base64 payload and stores it. Any
// "data:<mime>;base64," prefix is stripped before decoding.
func (i *Ingestor) IngestInline(ctx context.Context, inline Inline) (*Attachment, *errs.CustomError) {
	if strings.TrimSpace(inline.Data) == "" || strings.TrimSpace(inline.Name) == "" {
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	raw, err := base64.StdEncoding.DecodeString(stripDataURI(inline.Data))
	if err != nil {
		i.logger.Warn().Err(err).Str("file_name", inline.Name).Msg("Inline attachment payload is not valid base64")
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	if len(raw) == 0 {
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	return i.save(ctx, bytes.NewReader(raw), inline.Name, inline.Type)
}

func (i *Ingestor) save(ctx context.Context, body io.Reader, name, mimeType string) (*Attachment, *errs.CustomError) {
	key := StorageKey(name, time.Now())

	url, err := i.store.Save(ctx, key, mimeType, body)
	if err != nil {
		i.logger.Error().Err(err).Str("key", key).Msg("Blob store rejected attachment write")
		return nil, errs.NewError(errs.ErrFileStorageFailed)
	}

	att := &Attachment{
		Kind: classify(mimeType),
		URL:  url,
	}

	if att.Kind == KindFile {
		att.MimeType = mimeType
		att.Name = name
	}

	return att, nil
}
