package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"smart-pdf-chatbot/internal/config"
	"smart-pdf-chatbot/internal/pipeline"
	"smart-pdf-chatbot/internal/service"
	"smart-pdf-chatbot/pkg/log"

	"github.com/gin-gonic/gin"
)

// UploadFormField 是上传表单中 PDF 文件的字段名，可重复出现。
const UploadFormField = "files"

// UploadHandler 负责处理文件上传与摘要相关的 API 请求。
type UploadHandler struct {
	uploadService service.UploadService
	limits        config.CorpusConfig
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(uploadService service.UploadService, limits config.CorpusConfig) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, limits: limits}
}

// Upload 接收一个 multipart 批次，替换会话的文档集合并返回记录与摘要。
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的上传表单"})
		return
	}
	headers := form.File[UploadFormField]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件"})
		return
	}
	if h.limits.MaxFiles > 0 && len(headers) > h.limits.MaxFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("一次最多上传 %d 个文件", h.limits.MaxFiles)})
		return
	}

	files := make([]pipeline.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if h.limits.MaxFileSize > 0 && fh.Size > h.limits.MaxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("文件 %s 超过大小限制", fh.Filename)})
			return
		}
		data, err := readFormFile(fh)
		if err != nil {
			log.Errorf("Upload: failed to read form file %s: %v", fh.Filename, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
			return
		}
		files = append(files, pipeline.UploadFile{Name: fh.Filename, Data: data})
	}

	result, err := h.uploadService.Upload(c.Request.Context(), sessionID(c), files)
	if err != nil {
		status := statusFor(err)
		if len(result.Records) > 0 {
			c.JSON(status, gin.H{"error": err.Error(), "records": result.Records})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Summarize 为会话当前的文档集合重新生成摘要。
func (h *UploadHandler) Summarize(c *gin.Context) {
	summary, err := h.uploadService.Resummarize(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
