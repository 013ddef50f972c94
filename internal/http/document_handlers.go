package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"loan-portal/internal/domain"
	"loan-portal/internal/service"
)

type documentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
}

func (h *Handler) uploadDocument(c *gin.Context) {
	identity, ok := h.mustIdentity(c)
	if !ok {
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		abortWithError(c, http.StatusBadRequest, "no file uploaded")
		return
	}
	docType := domain.DocumentType(c.PostForm("type"))
	if !docType.Valid() {
		abortWithError(c, http.StatusBadRequest, "invalid document type")
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.Request.Context(), service.UploadInput{
		UserID:      identity.AccountID,
		Type:        docType,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"account_id":  identity.AccountID,
		"document_id": doc.ID,
		"type":        doc.Type,
	}).Info("document uploaded")
	c.JSON(http.StatusCreated, documentToResponse(*doc))
}

func (h *Handler) myDocuments(c *gin.Context) {
	identity, ok := h.mustIdentity(c)
	if !ok {
		return
	}
	docs, err := h.documents.ListMine(c.Request.Context(), identity.AccountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := make([]DocumentResponse, len(docs))
	for i := range docs {
		resp[i] = documentToResponse(docs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) documentURL(c *gin.Context) {
	identity, ok := h.mustIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	url, err := h.documents.DownloadURL(c.Request.Context(), identity, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":       url,
		"expiresIn": int(h.presignTTL / time.Second),
	})
}

func (h *Handler) adminDocuments(c *gin.Context) {
	docs, err := h.documents.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := make([]DocumentResponse, len(docs))
	for i := range docs {
		resp[i] = documentToResponse(docs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) adminUpdateDocumentStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req documentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	doc, err := h.documents.UpdateStatus(c.Request.Context(), id, domain.DocumentStatus(req.Status))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, documentToResponse(*doc))
}

func (h *Handler) listObjects(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		writeError(c, h.logger, service.ErrStorageNotConfigured)
		return
	}

	prefix := c.Query("prefix")
	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, prefix)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}
