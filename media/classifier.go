// Package media classifies MIME types into display categories and selects
// the static icons shown when no generated thumbnail exists.
package media

import "strings"

// Category is the coarse classification of a file's MIME type.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryText     Category = "text"
	CategoryOther    Category = "other"
)

// Variant refines a category. Only documents currently carry one.
type Variant string

const (
	VariantNone Variant = ""
	VariantPDF  Variant = "pdf"
)

// Icon is a reference to one of the static fallback icon assets.
type Icon string

const (
	IconImage    Icon = "/static/icons/image.svg"
	IconVideo    Icon = "/static/icons/video.svg"
	IconPDF      Icon = "/static/icons/pdf.svg"
	IconDocument Icon = "/static/icons/document.svg"
	IconFile     Icon = "/static/icons/file.svg"
)

// Closed allow-list. Types missing here never get a generated thumbnail.
var thumbnailable = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/bmp":       true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
	"video/x-msvideo": true,
	"application/pdf": true,
}

// NormalizeMime normalizes MIME to lowercase token form.
func NormalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// Classify maps a MIME type to its category. Unknown or malformed input is
// CategoryOther.
func Classify(mimeType string) Category {
	category, _ := ClassifyVariant(mimeType)
	return category
}

// ClassifyVariant is Classify plus the document variant: application types
// mentioning pdf are VariantPDF.
func ClassifyVariant(mimeType string) (Category, Variant) {
	mime := NormalizeMime(mimeType)
	primary, subtype, ok := strings.Cut(mime, "/")
	if !ok || subtype == "" {
		return CategoryOther, VariantNone
	}

	switch primary {
	case "image":
		return CategoryImage, VariantNone
	case "video":
		return CategoryVideo, VariantNone
	case "text":
		return CategoryText, VariantNone
	case "application":
		if strings.Contains(subtype, "pdf") {
			return CategoryDocument, VariantPDF
		}
		return CategoryDocument, VariantNone
	default:
		return CategoryOther, VariantNone
	}
}

// FallbackIcon returns the static icon for a MIME type. Text shares the
// document icon and PDF documents get their own.
func FallbackIcon(mimeType string) Icon {
	category, variant := ClassifyVariant(mimeType)
	switch category {
	case CategoryImage:
		return IconImage
	case CategoryVideo:
		return IconVideo
	case CategoryDocument:
		if variant == VariantPDF {
			return IconPDF
		}
		return IconDocument
	case CategoryText:
		return IconDocument
	default:
		return IconFile
	}
}

// SupportsGeneratedThumbnail reports whether a renderer may produce a real
// thumbnail for the MIME type.
func SupportsGeneratedThumbnail(mimeType string) bool {
	return thumbnailable[NormalizeMime(mimeType)]
}
