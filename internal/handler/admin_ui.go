package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gin-gonic/gin"
)

var pageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// AdminUIHandler serves the admin console pages from a directory of
// pre-built HTML files (<dir>/<page>.html). Gating is done by AdminGuard.
type AdminUIHandler struct {
	dir string
}

func NewAdminUIHandler(dir string) *AdminUIHandler {
	return &AdminUIHandler{dir: dir}
}

func (h *AdminUIHandler) Page(c *gin.Context) {
	page := c.Param("page")
	if page == "" {
		page = "index"
	}
	if !pageNamePattern.MatchString(page) {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}

	file := filepath.Join(h.dir, page+".html")
	if info, err := os.Stat(file); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.File(file)
}
