/*
Package attachment normalizes inbound attachment payloads into stored blobs.

A payload arrives either as a multipart file part or as an inline object
carrying a base64-encoded body. Both paths produce a durable public URL and
a classification: image attachments keep only their URL, every other media
type is kept as a generic file with its original MIME type and name.
*/
package attachment

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Kind tags the attachment variant. A message carries at most one attachment,
// and an attachment is exactly one of the two kinds.
type Kind string

const (
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Attachment is the stored reference to an uploaded blob.
// For KindImage only URL is set; for KindFile the original MIME type and
// file name are retained as metadata.
type Attachment struct {
	Kind     Kind   `json:"kind"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Inline is the JSON shape of an inline (base64) attachment payload.
type Inline struct {
	Data string `json:"data"`
	Type string `json:"type"`
	Name string `json:"name"`
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	unsafeRe     = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	// dataURIRe matches an embedding-scheme prefix such as "data:image/png;base64,".
	dataURIRe = regexp.MustCompile(`^data:[A-Za-z0-9.+/-]+;base64,`)
)

// SanitizeName reduces a client-supplied file name to a safe character set:
// letters, digits, dot, dash and underscore, with whitespace runs replaced
// by single underscores.
func SanitizeName(name string) string {
	name = whitespaceRe.ReplaceAllString(name, "_")
	return unsafeRe.ReplaceAllString(name, "")
}

// StorageKey builds a collision-resistant storage key for an uploaded file:
// the current Unix-millisecond timestamp followed by the sanitized name.
func StorageKey(name string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeName(name))
}

// classify maps a declared media type onto the attachment variant: any type
// whose top-level token is "image" becomes KindImage, everything else KindFile.
func classify(mimeType string) Kind {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return KindImage
	}
	return KindFile
}

// stripDataURI removes a leading "data:<mime>;base64," marker from an inline
// payload, returning the bare base64 body.
func stripDataURI(data string) string {
	return dataURIRe.ReplaceAllString(data, "")
}

// InlineImage builds an Inline payload from a raw base64 image string. The
// media type is taken from a data URI prefix when one is present, defaulting
// to PNG, matching what clients send for profile pictures.
func InlineImage(data, name string) Inline {
	mimeType := "image/png"
	if marker := dataURIRe.FindString(data); marker != "" {
		mimeType = strings.TrimSuffix(strings.TrimPrefix(marker, "data:"), ";base64,")
	}

	return Inline{
		Data: data,
		Type: mimeType,
		Name: name,
	}
}
