package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"partypics-app/internal/infra/sanitize"
)

// SanitizeMultipartInput strips markup from every text value of a multipart
// form, including string fields inside JSON encoded values. File parts are
// left alone; handlers clean what they read from them.
func SanitizeMultipartInput(maxMemory int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Next()
			return
		}

		if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}

		// ParseMultipartForm copies the values into Form and PostForm
		for _, values := range []map[string][]string{
			c.Request.MultipartForm.Value,
			c.Request.PostForm,
			c.Request.Form,
		} {
			for k, vs := range values {
				for i, v := range vs {
					values[k][i] = sanitizeValue(v)
				}
			}
		}

		c.Next()
	}
}

func sanitizeValue(v string) string {
	trimmed := strings.TrimSpace(v)
	if strings.HasPrefix(trimmed, "{") {
		if out, ok := sanitize.JSONFields([]byte(trimmed)); ok {
			return string(out)
		}
	}
	return sanitize.Text(v)
}
