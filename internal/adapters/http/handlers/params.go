package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/dto"
)

// idParam returns the :id path parameter. A blank id writes a 400.
func idParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		dto.BadRequest(c, "id is required")
		return "", false
	}

	return id, true
}

// splitList flattens repeated and comma-separated query values,
// dropping blanks: ?tags=a,b&tags=c yields [a b c].
func splitList(values []string) []string {
	var out []string

	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

// sendCSV buffers an export and writes it as a file attachment, so a failed
// export still produces a proper error envelope.
func sendCSV(c *gin.Context, filename string, export func(io.Writer) error) {
	var buf bytes.Buffer

	if err := export(&buf); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// respondPage paginates items per the request cursor and writes the page.
func respondPage[T any](c *gin.Context, items []T, page dto.PaginationRequest, idOf func(T) string) {
	resp, err := dto.Paginate(items, page, idOf)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, resp)
}
