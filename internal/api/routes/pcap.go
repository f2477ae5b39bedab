// filename: internal/api/routes/pcap.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rulesmith/rulesmith/internal/common/config"
	apperrors "github.com/rulesmith/rulesmith/internal/common/errors"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/common/pg"
	"github.com/rulesmith/rulesmith/internal/pcapstore"
)

// PcapHandler обработчик загрузки файлов трафика // v1.0
type PcapHandler struct {
	logger    *logging.Logger
	store     *pcapstore.Store
	pgClient  *pg.Client
	appConfig *config.Config
}

// NewPcapHandler создает новый обработчик PCAP файлов // v1.0
func NewPcapHandler(logger *logging.Logger, store *pcapstore.Store, pgClient *pg.Client, appConfig *config.Config) *PcapHandler {
	return &PcapHandler{
		logger:    logger,
		store:     store,
		pgClient:  pgClient,
		appConfig: appConfig,
	}
}

// Upload обрабатывает POST /pcap/upload // v1.0
func (h *PcapHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "multipart field 'file' is required",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeInternal, "failed to read uploaded file"))
		return
	}
	defer src.Close()

	file, err := h.store.Save(c.Request.Context(), fileHeader.Filename, src, fileHeader.Size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": file})
}

// List обрабатывает GET /pcap // v1.0
func (h *PcapHandler) List(c *gin.Context) {
	files, err := h.store.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"total": len(files),
	})
}

// Delete обрабатывает DELETE /pcap/:filename // v1.0
func (h *PcapHandler) Delete(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "filename is required",
		})
		return
	}

	if err := h.store.Delete(c.Request.Context(), filename); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}

// pcapConfigRequest запрос изменения пути к файлам трафика
type pcapConfigRequest struct {
	DefaultPcapPath string `json:"default_pcap_path" binding:"required,max=1024"`
}

// GetDefaultPath обрабатывает GET /pcap/config // v1.0
func (h *PcapHandler) GetDefaultPath(c *gin.Context) {
	path := h.appConfig.Uploads.DefaultPcapPath

	var stored string
	err := h.pgClient.QueryRow(c.Request.Context(),
		`SELECT value FROM app_config WHERE key = 'default_pcap_path'`).Scan(&stored)
	if err == nil && stored != "" {
		path = stored
	}

	c.JSON(http.StatusOK, gin.H{
		"default_pcap_path": path,
		"uploads_dir":       h.store.Dir(),
	})
}

// SetDefaultPath обрабатывает PUT /pcap/config // v1.0
func (h *PcapHandler) SetDefaultPath(c *gin.Context) {
	var req pcapConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	_, err := h.pgClient.Exec(c.Request.Context(),
		`INSERT INTO app_config (key, value) VALUES ('default_pcap_path', $1)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		req.DefaultPcapPath)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to store configuration"))
		return
	}

	h.logger.Logger.WithField("default_pcap_path", req.DefaultPcapPath).Info("Default capture path updated")

	c.JSON(http.StatusOK, gin.H{"default_pcap_path": req.DefaultPcapPath})
}
