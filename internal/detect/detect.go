// Package detect classifies raw payloads into one of the supported input
// kinds before any extractor runs.
package detect

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"fiscalio/internal/domain"
)

// Input is the raw request boundary: a byte payload, a filename, and an
// optionally declared content type.
type Input struct {
	Payload     []byte
	Filename    string
	ContentType string
}

// extensionContentTypes resolves the canonical MIME type for payloads
// matched by file extension, so downstream consumers always see one
// normalized content type regardless of what the client declared.
var extensionContentTypes = map[string]string{
	"xml":  "application/xml",
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// Classify resolves the payload into exactly one source format plus its
// canonical content type. Order of precedence: declared content type,
// file extension, magic-byte sniffing. A generic declared type such as
// application/octet-stream falls through to the later steps. Anything
// else fails with UnsupportedFormatError naming the offending type; no
// extractor is ever invoked for an unclassifiable payload.
func Classify(in Input) (domain.SourceFormat, string, error) {
	if len(in.Payload) == 0 {
		return "", "", &domain.UnsupportedFormatError{ContentType: "empty payload"}
	}

	if declared := normalizeContentType(in.ContentType); declared != "" {
		if format, ok := domain.AllowedContentTypes[declared]; ok {
			return format, declared, nil
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	if format, ok := domain.AllowedExtensions[ext]; ok {
		return format, extensionContentTypes[ext], nil
	}

	sniffed := sniff(in.Payload)
	if format, ok := domain.AllowedContentTypes[sniffed]; ok {
		return format, sniffed, nil
	}

	offending := in.ContentType
	if offending == "" {
		offending = sniffed
	}
	return "", "", &domain.UnsupportedFormatError{ContentType: offending}
}

// sniff detects the content type from the first 512 bytes. XML needs a
// separate probe because http.DetectContentType reports "text/plain" for
// documents without an <?xml declaration at offset zero.
func sniff(payload []byte) string {
	head := payload
	if len(head) > 512 {
		head = head[:512]
	}

	detected := http.DetectContentType(head)
	if mime := normalizeContentType(detected); mime != "" {
		if _, ok := domain.AllowedContentTypes[mime]; ok {
			return mime
		}
	}

	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	if bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<")) {
		return "application/xml"
	}

	return normalizeContentType(detected)
}

// normalizeContentType strips parameters ("; charset=utf-8") and lowercases.
func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "text/xml" {
		return "application/xml"
	}
	return ct
}
