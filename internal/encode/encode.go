package encode

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// Encoded is an image payload ready for transport to the OCR provider.
type Encoded struct {
	Base64  string
	Subtype string // normalized MIME subtype, e.g. "jpeg", "png"
}

// EncodingError means the uploaded bytes could not be turned into a
// transport encoding. The pipeline must not call the OCR client after one.
type EncodingError struct {
	Filename string
	Reason   string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.Filename, e.Reason)
}

// Encode converts raw upload bytes into a base64 payload with a normalized
// MIME subtype derived from the file extension. "jpg" normalizes to "jpeg";
// all other extensions pass through lowercased.
func Encode(data []byte, filename string) (Encoded, error) {
	if len(data) == 0 {
		return Encoded{}, &EncodingError{Filename: filename, Reason: "empty file"}
	}
	return Encoded{
		Base64:  base64.StdEncoding.EncodeToString(data),
		Subtype: NormalizeSubtype(filename),
	}, nil
}

// NormalizeSubtype derives the MIME subtype from a filename extension.
func NormalizeSubtype(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

// MIMEType returns the full image MIME type, e.g. "image/jpeg".
func (e Encoded) MIMEType() string {
	return "image/" + e.Subtype
}

// DataURL renders the payload as a data URL for providers that accept
// inline documents.
func (e Encoded) DataURL() string {
	return "data:" + e.MIMEType() + ";base64," + e.Base64
}

// Decode reverses the base64 encoding. Used to verify round-trips.
func (e Encoded) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(e.Base64)
}
