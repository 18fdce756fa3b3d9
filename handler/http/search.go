package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comptadoc/src/core/search"
)

// SimpleSearch godoc
// @Summary Substring search over names and descriptions
// @Tags search
// @Param q query string true "Search text"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "ASC|DESC"
// @Produce json
// @Success 200 {object} search.Result
// @Failure 400 {object} ErrorResponse
// @Router /documents/search [get]
func (h *Handler) SimpleSearch(c *gin.Context) {
	u := currentUser(c)

	var req search.SimpleRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.searchService.Simple(c.Request.Context(), u.ID, req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}

// AdvancedSearch godoc
// @Summary Conjunctive multi-field filter
// @Tags search
// @Accept json
// @Param body body search.AdvancedRequest true "Filters"
// @Produce json
// @Success 200 {object} search.Result
// @Failure 400 {object} ErrorResponse
// @Router /documents/search/advanced [post]
func (h *Handler) AdvancedSearch(c *gin.Context) {
	u := currentUser(c)

	var req search.AdvancedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.searchService.Advanced(c.Request.Context(), u.ID, req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}

// SemanticSearch godoc
// @Summary Embedding similarity search
// @Tags search
// @Accept json
// @Param body body search.SemanticRequest true "Query"
// @Produce json
// @Success 200 {object} search.Result
// @Failure 400 {object} ErrorResponse
// @Router /documents/search/semantic [post]
func (h *Handler) SemanticSearch(c *gin.Context) {
	u := currentUser(c)

	var req search.SemanticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.searchService.Semantic(c.Request.Context(), u.ID, req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}

// HybridSearch godoc
// @Summary Blended embedding and text search
// @Tags search
// @Accept json
// @Param body body search.SemanticRequest true "Query"
// @Produce json
// @Success 200 {object} search.Result
// @Failure 400 {object} ErrorResponse
// @Router /documents/search/hybrid [post]
func (h *Handler) HybridSearch(c *gin.Context) {
	u := currentUser(c)

	var req search.SemanticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.searchService.Hybrid(c.Request.Context(), u.ID, req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}

// SmartSearch godoc
// @Summary Heuristic search over extracted fields
// @Tags search
// @Accept json
// @Param body body search.SmartRequest true "Criteria"
// @Produce json
// @Success 200 {object} search.Result
// @Failure 400 {object} ErrorResponse
// @Router /documents/search/smart [post]
func (h *Handler) SmartSearch(c *gin.Context) {
	u := currentUser(c)

	var req search.SmartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.searchService.Smart(c.Request.Context(), u.ID, req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}
