package records

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/anoixa/image-thumbnailer/api/common"
	"github.com/anoixa/image-thumbnailer/internal/thumbnail"
	"github.com/anoixa/image-thumbnailer/metadata"
	"github.com/anoixa/image-thumbnailer/metadata/types"
	"github.com/gin-gonic/gin"
)

// RecordReader 元数据读取
type RecordReader interface {
	Get(ctx context.Context, key string) (*metadata.Record, error)
}

// Handler 缩略图记录查询
type Handler struct {
	store RecordReader
}

func NewHandler(store RecordReader) *Handler {
	return &Handler{store: store}
}

// recordsResponse 以规格标签为键的 URL 集合
type recordsResponse struct {
	Base    string            `json:"base"`
	Records map[string]string `json:"records"`
	Missing []string          `json:"missing,omitempty"`
}

// GetRecords 查询某个基础名下的全部衍生图记录
func (h *Handler) GetRecords(c *gin.Context) {
	base := c.Param("base")
	if base == "" || strings.ContainsAny(base, "/\\") {
		common.RespondError(c, http.StatusBadRequest, "Invalid base name")
		return
	}

	resp := recordsResponse{Base: base, Records: make(map[string]string)}
	for _, spec := range thumbnail.Variants() {
		key := thumbnail.RecordKey(base, spec.Label)
		record, err := h.store.Get(c.Request.Context(), key)
		if err != nil {
			if types.IsNotFound(err) {
				resp.Missing = append(resp.Missing, spec.Label)
				continue
			}
			log.Printf("[Records] Failed to read %s: %v", key, err)
			common.RespondError(c, http.StatusInternalServerError, "Failed to read records")
			return
		}
		resp.Records[spec.Label] = record.URL
	}

	if len(resp.Records) == 0 {
		common.RespondError(c, http.StatusNotFound, "No records found")
		return
	}
	common.RespondSuccess(c, resp)
}
