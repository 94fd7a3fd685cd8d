package utils

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Upload is a decoded source file
type Upload struct {
	Source   string `json:"-"`
	MIME     string `json:"mime"`
	Charset  string `json:"charset"`
	Size     int    `json:"size"`
	Original int    `json:"original_size"`
}

// DecodeUpload turns an uploaded file into UTF-8 source. The content must
// sniff as text; non-UTF-8 text is transcoded from its detected charset.
func DecodeUpload(data []byte, maxBytes int) (*Upload, error) {
	if maxBytes <= 0 {
		maxBytes = MaxSourceSize
	}
	if len(data) > maxBytes {
		return nil, fmt.Errorf("upload size %d bytes exceeds maximum %d bytes", len(data), maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !IsText(mtype) {
		return nil, fmt.Errorf("upload is %s, not text", mtype.String())
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	up := &Upload{MIME: mtype.String(), Charset: "utf-8", Original: len(data)}

	if !utf8.Valid(data) {
		label := DetectCharset(data)
		decoded, err := transcode(data, label)
		if err != nil {
			return nil, fmt.Errorf("decode %s upload: %w", label, err)
		}
		up.Charset = label
		data = decoded
	}

	up.Source = string(data)
	up.Size = len(data)
	if err := ValidateSource(up.Source, maxBytes*4); err != nil {
		return nil, err
	}
	return up, nil
}

// IsText reports whether m is text/plain or one of its descendants
// (JavaScript, JSON, HTML and the like)
func IsText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DetectCharset returns the lower-cased best guess for data's charset
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func transcode(data []byte, label string) ([]byte, error) {
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
