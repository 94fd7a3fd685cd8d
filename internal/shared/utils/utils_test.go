package utils

import (
	"strings"
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  bool
	}{
		{"valid", "sess_01HZX", true, false},
		{"empty optional", "", false, false},
		{"empty required", "", true, true},
		{"slash", "a/b", true, true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "id", tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	assert.NoError(t, ValidateSource("", 0))
	assert.NoError(t, ValidateSource("console.log('héllo')", 0))
	assert.Error(t, ValidateSource(strings.Repeat("x", 11), 10))
	assert.Error(t, ValidateSource("a\x00b", 0))
	assert.Error(t, ValidateSource("\xff\xfe", 0))
}

func TestDecodeUpload(t *testing.T) {
	t.Run("utf-8 javascript", func(t *testing.T) {
		up, err := DecodeUpload([]byte("const x = 1;\nconsole.log(x);\n"), 0)
		require.NoError(t, err)
		assert.Equal(t, "utf-8", up.Charset)
		assert.Equal(t, "const x = 1;\nconsole.log(x);\n", up.Source)
	})

	t.Run("byte order mark is stripped", func(t *testing.T) {
		up, err := DecodeUpload([]byte("\xef\xbb\xbfreturn 1;"), 0)
		require.NoError(t, err)
		assert.Equal(t, "return 1;", up.Source)
	})

	t.Run("latin-1 is transcoded", func(t *testing.T) {
		latin1 := []byte("console.log('caf\xe9 cr\xe8me br\xfbl\xe9e, d\xe9j\xe0 vu, na\xefve fa\xe7ade');\n")
		up, err := DecodeUpload(latin1, 0)
		require.NoError(t, err)
		assert.NotEqual(t, "utf-8", up.Charset)
		assert.Contains(t, up.Source, "café")
	})

	t.Run("binary is rejected", func(t *testing.T) {
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		_, err := DecodeUpload(png, 0)
		assert.ErrorContains(t, err, "not text")
	})

	t.Run("oversized is rejected", func(t *testing.T) {
		_, err := DecodeUpload([]byte(strings.Repeat("a", 100)), 10)
		assert.ErrorContains(t, err, "exceeds")
	})
}

func TestIsText(t *testing.T) {
	assert.True(t, IsText(mimetype.Detect([]byte(`{"a": 1}`))))
	assert.True(t, IsText(mimetype.Detect([]byte("plain words"))))
	assert.False(t, IsText(mimetype.Detect([]byte("%PDF-1.4\n"))))
}

func TestHasher(t *testing.T) {
	h := DefaultHasher()

	assert.Equal(t, h.HashString("abc"), h.Hash([]byte("abc")))
	assert.Len(t, h.HashString("abc"), 64)
	assert.Equal(t, h.HashFields("a", "b"), h.HashFields("b", "a"))

	etag := h.ETag("<p>hi</p>")
	assert.Len(t, etag, 18)
	assert.True(t, strings.HasPrefix(etag, `"`))
	assert.NotEqual(t, etag, h.ETag("<p>bye</p>"))
}
