package groundstation

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// encodeMultipartFile builds a single-file multipart/form-data body
// for the "file" field, returning the body reader and its Content-Type
// header value (including the boundary).
func encodeMultipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
