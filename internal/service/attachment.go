package service

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxAttachmentBytes bounds files embedded as data URLs.
const MaxAttachmentBytes = 5 << 20

// FileToDataURL reads path and encodes it as a base64 data URL. The MIME type comes from the
// extension, falling back to content sniffing, and must be an image or a PDF.
func FileToDataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read attachment %q: %w", path, err)
	}
	if len(b) > MaxAttachmentBytes {
		return "", invalidf("attachment %q is larger than %d bytes", filepath.Base(path), MaxAttachmentBytes)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(b)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") && mimeType != "application/pdf" {
		return "", invalidf("attachment %q has unsupported type %s", filepath.Base(path), mimeType)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// ResolveAttachments converts file paths to data URLs and keeps URLs and data URLs as given.
func ResolveAttachments(refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range trimStrings(refs) {
		lower := strings.ToLower(ref)
		if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			out = append(out, ref)
			continue
		}
		u, err := FileToDataURL(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
