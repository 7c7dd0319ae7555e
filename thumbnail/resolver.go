// Package thumbnail resolves the image shown for an attachment: a generated
// thumbnail when one exists, otherwise the static icon for its media type.
package thumbnail

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"formintake-backend/media"
	"formintake-backend/models"
	"formintake-backend/storage"

	"github.com/google/uuid"
)

// DefaultClass is the style class every rendered thumbnail carries unless overridden
const DefaultClass = "submission-thumbnail"

// Store persists the thumbnail reference of an attachment
type Store interface {
	UpdateThumbnailURL(ctx context.Context, id uuid.UUID, thumbnailURL string) error
}

// Renderer produces a real thumbnail under key and returns its public URL.
type Renderer interface {
	Render(ctx context.Context, attachment *models.FileAttachment, key string) (string, error)
}

// Resolver resolves and generates attachment thumbnails
type Resolver struct {
	store    Store
	renderer Renderer
	logger   *slog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithRenderer plugs in a thumbnail renderer
func WithRenderer(renderer Renderer) Option {
	return func(r *Resolver) {
		r.renderer = renderer
	}
}

// WithLogger sets the resolver logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver that records generated thumbnails in store
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "thumbnail"))
	return r
}

// Resolve returns the stored thumbnail reference verbatim, or the fallback
// icon when none has been recorded (nil). It never triggers generation.
func (r *Resolver) Resolve(attachment *models.FileAttachment) string {
	if attachment == nil {
		return string(media.FallbackIcon(""))
	}
	if attachment.ThumbnailURL != nil {
		return *attachment.ThumbnailURL
	}
	return string(media.FallbackIcon(attachment.MimeType))
}

// Generate produces and records a thumbnail for the attachment. It returns
// false with a nil error when the media type is not eligible, and true only
// once the new reference has been committed.
func (r *Resolver) Generate(ctx context.Context, attachment *models.FileAttachment) (bool, error) {
	if attachment == nil || !media.SupportsGeneratedThumbnail(attachment.MimeType) {
		return false, nil
	}

	key := StorageKey(attachment)

	var thumbnailURL string
	if r.renderer != nil {
		rendered, err := r.renderer.Render(ctx, attachment, key)
		if err != nil {
			return false, fmt.Errorf("render thumbnail %s: %w", key, err)
		}
		thumbnailURL = rendered
	} else {
		// Degraded mode: no renderer is wired, so the fallback icon stands in
		// for the rendered image under the same contract.
		thumbnailURL = string(media.FallbackIcon(attachment.MimeType))
		r.logger.Debug("no renderer configured, recording fallback icon",
			slog.String("attachment_id", attachment.ID.String()),
			slog.String("key", key),
		)
	}

	if err := r.store.UpdateThumbnailURL(ctx, attachment.ID, thumbnailURL); err != nil {
		return false, fmt.Errorf("record thumbnail: %w", err)
	}
	attachment.ThumbnailURL = &thumbnailURL
	return true, nil
}

// StorageKey is the deterministic location of an attachment's thumbnail,
// derived from its submission and original file name.
func StorageKey(attachment *models.FileAttachment) string {
	name := storage.SanitizeFilename(attachment.OriginalName)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return path.Join("thumbnails", attachment.SubmissionID.String(), stem+"-thumb.png")
}

// RenderMarkup builds an <img> tag for the attachment. Caller attributes
// override the defaults (alt, loading, class) but never src.
func (r *Resolver) RenderMarkup(attachment *models.FileAttachment, attrs map[string]string) template.HTML {
	merged := map[string]string{
		"loading": "lazy",
		"class":   DefaultClass,
	}
	if attachment != nil {
		merged["alt"] = attachment.OriginalName
	}
	for name, value := range attrs {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "src" || !validAttrName(name) {
			continue
		}
		merged[name] = value
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(`<img src="`)
	b.WriteString(html.EscapeString(r.Resolve(attachment)))
	b.WriteByte('"')
	for _, name := range names {
		fmt.Fprintf(&b, ` %s="%s"`, name, html.EscapeString(merged[name]))
	}
	b.WriteString(">")
	return template.HTML(b.String())
}

func validAttrName(name string) bool {
	if name == "" || strings.HasPrefix(name, "on") {
		return false
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_' || c == ':') {
			return false
		}
	}
	return true
}
