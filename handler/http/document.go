package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"comptadoc/src/core/document"
	"comptadoc/src/core/search"
	"comptadoc/src/infrastructure/log"
)

const downloadURLExpiry = time.Hour

// UploadDocument godoc
// @Summary Upload an accounting document
// @Tags documents
// @Accept multipart/form-data
// @Param file formData file true "Document file"
// @Param description formData string false "Free-text description"
// @Param type formData string false "Document type hint"
// @Produce json
// @Success 201 {object} document.Document
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /documents [post]
func (h *Handler) UploadDocument(c *gin.Context) {
	u := currentUser(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("file upload required: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to read file: %w", err))
		return
	}

	doc, err := h.docService.Create(c.Request.Context(), u.ID, document.CreateInput{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Description:  c.PostForm("description"),
		Type:         document.Type(c.PostForm("type")),
		Data:         data,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	// Classification and embedding run in the background; upload stays fast.
	if _, err := h.jobService.EnqueueProcessDocument(c.Request.Context(), doc.ID); err != nil {
		log.Error(err, "failed to enqueue document processing", "documentId", doc.ID)
	}

	sendJSON(c, http.StatusCreated, doc)
}

// ListDocuments godoc
// @Summary List documents visible to the caller
// @Tags documents
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param sortBy query string false "createdAt|updatedAt|originalName|size|type"
// @Param sortOrder query string false "ASC|DESC"
// @Produce json
// @Success 200 {object} search.Result
// @Failure 500 {object} ErrorResponse
// @Router /documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	u := currentUser(c)

	var page search.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	// An empty query matches everything: listing is simple search without a
	// needle.
	result, err := h.searchService.Simple(c.Request.Context(), u.ID, search.SimpleRequest{Page: page})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}

// GetDocument godoc
// @Summary Fetch one document
// @Tags documents
// @Param id path string true "Document ID"
// @Produce json
// @Success 200 {object} document.Document
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id} [get]
func (h *Handler) GetDocument(c *gin.Context) {
	u := currentUser(c)
	doc, err := h.docService.Get(c.Request.Context(), c.Param("id"), u.ID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, doc)
}

// GetDocumentURL godoc
// @Summary Presigned download URL for the document binary
// @Tags documents
// @Param id path string true "Document ID"
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id}/url [get]
func (h *Handler) GetDocumentURL(c *gin.Context) {
	u := currentUser(c)
	url, err := h.docService.DownloadURL(c.Request.Context(), c.Param("id"), u.ID, downloadURLExpiry)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, gin.H{"url": url})
}

type shareRequest struct {
	UserIDs  []string `json:"userIds" binding:"required"`
	IsPublic *bool    `json:"isPublic"`
}

// ShareDocument godoc
// @Summary Share a document with users
// @Tags documents
// @Accept json
// @Param id path string true "Document ID"
// @Param body body shareRequest true "Share targets"
// @Produce json
// @Success 200 {object} document.Document
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id}/share [post]
func (h *Handler) ShareDocument(c *gin.Context) {
	u := currentUser(c)

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	doc, err := h.docService.Share(c.Request.Context(), c.Param("id"), u.ID, req.UserIDs, req.IsPublic)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, doc)
}

// UnshareDocument godoc
// @Summary Revoke a user's access to a document
// @Tags documents
// @Param id path string true "Document ID"
// @Param userId path string true "User to remove"
// @Produce json
// @Success 200 {object} document.Document
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id}/share/{userId} [delete]
func (h *Handler) UnshareDocument(c *gin.Context) {
	u := currentUser(c)
	doc, err := h.docService.Unshare(c.Request.Context(), c.Param("id"), u.ID, c.Param("userId"))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, doc)
}

type visibilityRequest struct {
	IsPublic *bool `json:"isPublic" binding:"required"`
}

// SetDocumentVisibility godoc
// @Summary Toggle a document's public flag
// @Tags documents
// @Accept json
// @Param id path string true "Document ID"
// @Param body body visibilityRequest true "Visibility"
// @Produce json
// @Success 200 {object} document.Document
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id}/visibility [patch]
func (h *Handler) SetDocumentVisibility(c *gin.Context) {
	u := currentUser(c)

	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	doc, err := h.docService.SetPublic(c.Request.Context(), c.Param("id"), u.ID, *req.IsPublic)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, doc)
}

// GetSharedUsers godoc
// @Summary List users a document is shared with (owner only)
// @Tags documents
// @Param id path string true "Document ID"
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id}/shared-users [get]
func (h *Handler) GetSharedUsers(c *gin.Context) {
	u := currentUser(c)
	ids, err := h.docService.SharedUsers(c.Request.Context(), c.Param("id"), u.ID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, gin.H{"userIds": ids})
}

// DeleteDocument godoc
// @Summary Delete a document (owner only)
// @Tags documents
// @Param id path string true "Document ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id} [delete]
func (h *Handler) DeleteDocument(c *gin.Context) {
	u := currentUser(c)
	if err := h.docService.Remove(c.Request.Context(), c.Param("id"), u.ID); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}
