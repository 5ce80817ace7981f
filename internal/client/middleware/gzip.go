package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

var (
	gzipExcludedPaths = []string{
		"/v1/status",
	}
	// Image payloads are already compressed.
	gzipExcludedExtensions = []string{
		".png", ".gif", ".jpeg", ".jpg", ".webp", ".zip",
	}
)

func Gzip() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths(gzipExcludedPaths),
		gzip.WithExcludedExtensions(gzipExcludedExtensions),
	)
}
