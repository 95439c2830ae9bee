package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbook/internal/apperr"
)

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestSaveBase64(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveBase64(pngBase64(t))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveBase64DataURIPrefix(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveBase64("data:image/png;base64," + pngBase64(t))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"))
}

func TestSaveBase64Invalid(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveBase64("not base64 at all!!!")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Valid base64 of bytes that are not an image.
	_, err = store.SaveBase64(base64.StdEncoding.EncodeToString([]byte("hello")))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
