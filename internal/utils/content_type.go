package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// ContentType guesses a MIME type from a file name. Markdown is mapped
// explicitly because the mime package has no entry for it on most
// platforms; everything unknown is served as an opaque blob.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown; charset=utf-8"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
