package intake

import (
	"io"
	"mime/multipart"
	"os"
)

// Upload is a transient upload handle: a temporary source plus the name the
// client presented. The original name is display-only.
type Upload struct {
	OriginalName string
	DeclaredType string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// FromFileHeader wraps a parsed multipart file part.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		OriginalName: fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromPath wraps a temporary file already on disk.
func FromPath(path, originalName string) Upload {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	return Upload{
		OriginalName: originalName,
		Size:         size,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
