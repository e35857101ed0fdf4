package service_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/service"
)

func TestFileToDataURL(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	png := filepath.Join(dir, "foto.png")
	content := []byte("\x89PNG\r\n\x1a\nfake")
	require.NoError(t, os.WriteFile(png, content, 0o600))

	got, err := service.FileToDataURL(png)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(content), got)

	txt := filepath.Join(dir, "nota.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hola"), 0o600))
	_, err = service.FileToDataURL(txt)
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = service.FileToDataURL(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestResolveAttachmentsKeepsURLs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	pdf := filepath.Join(dir, "lab.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600))

	got, err := service.ResolveAttachments([]string{" https://example.com/a.png ", "data:image/gif;base64,R0lG", pdf, ""})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "https://example.com/a.png", got[0])
	assert.Equal(t, "data:image/gif;base64,R0lG", got[1])
	assert.True(t, strings.HasPrefix(got[2], "data:application/pdf;base64,"))
}
