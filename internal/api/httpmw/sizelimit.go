package httpmw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxToolArgsSize bounds a single tool call's JSON body — generous enough
// for a content/metadata payload, small enough to reject an abusive client
// before it reaches decode().
const MaxToolArgsSize int64 = 1 * 1024 * 1024

// SizeLimit rejects a request whose declared Content-Length exceeds
// maxSize and wraps the body in a MaxBytesReader so a lying Content-Length
// header can't bypass the check either.
func SizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false, "error": "request body too large", "code": "INVALID_INPUT",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
