package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/onboarding-backend/utils"
)

type FileController struct {
	files  utils.FileStore
	logger *slog.Logger
}

func NewFileController(files utils.FileStore, logger *slog.Logger) *FileController {
	return &FileController{files: files, logger: logger}
}

func (fc *FileController) Download(c *gin.Context) {
	name := c.Param("name")
	if err := utils.ValidateFileName(name); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rc, err := fc.files.Open(c.Request.Context(), name)
	if err != nil {
		respondError(c, fc.logger, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, utils.ContentTypeFor(name), rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `"`,
	})
}

func (fc *FileController) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "cannot read file")
		return
	}
	defer file.Close()

	stored, err := fc.files.Save(c.Request.Context(), fileHeader.Filename, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, fc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"fileName": stored,
		"url":      utils.DownloadURL(stored),
	})
}
