package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// notFound answers unknown routes. Outside /api it serves files from the
// frontend directory, falling back to index.html for client-side routes.
func notFound(staticPath string) gin.HandlerFunc {
	root := ""
	if info, err := os.Stat(staticPath); staticPath != "" && err == nil && info.IsDir() {
		root = staticPath
	}

	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		isAPI := reqPath == "/api" || strings.HasPrefix(reqPath, "/api/")
		if root == "" || isAPI || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "route not found"})
			return
		}

		// path.Clean on a rooted path cannot escape the root.
		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+reqPath)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "route not found"})
	}
}
