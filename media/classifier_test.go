package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Category
	}{
		{name: "jpeg", in: "image/jpeg", want: CategoryImage},
		{name: "uppercase with params", in: " IMAGE/PNG; charset=binary", want: CategoryImage},
		{name: "mp4", in: "video/mp4", want: CategoryVideo},
		{name: "plain text", in: "text/plain", want: CategoryText},
		{name: "pdf", in: "application/pdf", want: CategoryDocument},
		{name: "docx", in: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", want: CategoryDocument},
		{name: "zip", in: "application/zip", want: CategoryDocument},
		{name: "audio", in: "audio/mpeg", want: CategoryOther},
		{name: "font", in: "font/woff2", want: CategoryOther},
		{name: "no slash", in: "image", want: CategoryOther},
		{name: "empty subtype", in: "image/", want: CategoryOther},
		{name: "empty", in: "", want: CategoryOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestClassifyVariant(t *testing.T) {
	category, variant := ClassifyVariant("application/pdf")
	assert.Equal(t, CategoryDocument, category)
	assert.Equal(t, VariantPDF, variant)

	category, variant = ClassifyVariant("application/x-pdf")
	assert.Equal(t, CategoryDocument, category)
	assert.Equal(t, VariantPDF, variant)

	_, variant = ClassifyVariant("application/msword")
	assert.Equal(t, VariantNone, variant)

	// only application types carry the pdf variant
	_, variant = ClassifyVariant("text/pdf-notes")
	assert.Equal(t, VariantNone, variant)
}

func TestFallbackIcon(t *testing.T) {
	cases := map[string]Icon{
		"image/gif":          IconImage,
		"video/webm":         IconVideo,
		"application/pdf":    IconPDF,
		"application/msword": IconDocument,
		"text/csv":           IconDocument,
		"audio/ogg":          IconFile,
		"garbage":            IconFile,
	}
	for mime, want := range cases {
		got := FallbackIcon(mime)
		assert.Equal(t, want, got, "FallbackIcon(%q)", mime)
		assert.Equal(t, got, FallbackIcon(mime), "FallbackIcon(%q) must be stable", mime)
	}
}

func TestFallbackIconDistinctPerCategory(t *testing.T) {
	icons := map[Icon]bool{}
	for _, mime := range []string{"image/png", "video/mp4", "application/pdf", "application/zip", "audio/wav"} {
		icons[FallbackIcon(mime)] = true
	}
	assert.Len(t, icons, 5)
}

func TestSupportsGeneratedThumbnail(t *testing.T) {
	for _, mime := range []string{"image/jpeg", "IMAGE/PNG", "video/mp4", "video/quicktime", "application/pdf"} {
		assert.True(t, SupportsGeneratedThumbnail(mime), mime)
	}
	for _, mime := range []string{"application/zip", "text/plain", "image/svg+xml", "image/x-future", "audio/mpeg", ""} {
		assert.False(t, SupportsGeneratedThumbnail(mime), mime)
	}
}

func TestUnknownPrimaryIsOtherAndNotThumbnailable(t *testing.T) {
	for _, mime := range []string{"audio/mpeg", "model/gltf+json", "multipart/form-data", "x-unknown/thing"} {
		assert.Equal(t, CategoryOther, Classify(mime))
		assert.False(t, SupportsGeneratedThumbnail(mime))
	}
}

func TestTypeByFilename(t *testing.T) {
	mime, ok := TypeByFilename("Portfolio.JPG")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", mime)

	_, ok = TypeByFilename("setup.exe")
	assert.False(t, ok)

	_, ok = TypeByFilename("README")
	assert.False(t, ok)

	assert.Equal(t, "docx", Extension("cv.final.DOCX"))
	assert.Equal(t, "", Extension("noext"))
}
