package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"catalog_viewer/internal/domain"
	"catalog_viewer/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BrowseHandler struct {
	useCase     usecase.BrowseUseCase
	waitTimeout time.Duration
	log         *logrus.Logger
}

func NewBrowseHandler(uc usecase.BrowseUseCase, waitTimeout time.Duration, logger *logrus.Logger) *BrowseHandler {
	return &BrowseHandler{
		useCase:     uc,
		waitTimeout: waitTimeout,
		log:         logger,
	}
}

func (h *BrowseHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/products", h.ListProducts)
	router.GET("/sort-columns", h.SortColumns)

	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.OpenSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.CloseSession)
		sessions.POST("/:id/search", h.Search)
		sessions.POST("/:id/keystroke", h.Keystroke)
		sessions.POST("/:id/search/clear", h.ClearSearch)
		sessions.POST("/:id/sort", h.Sort)
		sessions.POST("/:id/sort/reset", h.ResetSort)
		sessions.POST("/:id/page", h.ChangePage)
		sessions.POST("/:id/reset", h.ResetFilters)
		sessions.POST("/:id/refresh", h.Refresh)
	}
}

type sessionView struct {
	ProductListView
	SearchInput   string `json:"search_input"`
	SearchPending bool   `json:"search_pending"`
}

func newSessionView(s *usecase.Session) sessionView {
	v := sessionView{
		ProductListView: newListView(s.List.State()),
		SearchInput:     s.Search.Value(),
		SearchPending:   s.Search.Pending(),
	}
	v.SessionID = s.ID.String()
	return v
}

type searchRequest struct {
	Term string `json:"term"`
}

type keystrokeRequest struct {
	Value string `json:"value"`
}

type sortRequest struct {
	SortBy domain.SortColumn `json:"sort_by" binding:"required"`
	Order  string            `json:"order"   binding:"required"`
}

type pageRequest struct {
	Page int `json:"page" binding:"required"`
}

// ListProducts serves one page without a session. Missing parameters fall
// back to the configured defaults.
func (h *BrowseHandler) ListProducts(c *gin.Context) {
	params := h.useCase.Defaults()
	params.Search = c.Query("search")
	if sortBy := c.Query("sort_by"); sortBy != "" {
		params.SortBy = domain.SortColumn(sortBy)
		h.warnUnlistedColumn(params.SortBy)
	}
	if orderStr := c.Query("order"); orderStr != "" {
		order, err := domain.ParseSortOrder(orderStr)
		if err != nil {
			h.log.Warnf("Invalid order parameter: %s", orderStr)
			ErrorResponse(c, http.StatusBadRequest, "Invalid order: must be asc or desc")
			return
		}
		params.Order = order
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			h.log.Warnf("Invalid page parameter: %s", pageStr)
			ErrorResponse(c, http.StatusBadRequest, "Invalid page: "+usecase.ErrInvalidPage.Error())
			return
		}
		params.Page = page
	}

	resp, err := h.useCase.ListProducts(c.Request.Context(), params)
	if err != nil {
		statusCode := mapErrorToStatus(err)
		h.log.Errorf("Failed to list products: %v", err)
		ErrorResponse(c, statusCode, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", newResponseView(resp, params, h.useCase.Defaults()))
}

func (h *BrowseHandler) SortColumns(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "Sort columns retrieved successfully", domain.SortOptions())
}

func (h *BrowseHandler) OpenSession(c *gin.Context) {
	session, err := h.useCase.Open()
	if err != nil {
		h.log.Errorf("Failed to open session: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to open session: "+err.Error())
		return
	}
	h.log.Infof("Session opened: %s", session.ID)
	SuccessResponse(c, http.StatusCreated, "Session opened successfully", newSessionView(session))
}

// GetSession renders the session. With wait=true it first blocks until no
// fetch is in flight, bounded by the wait timeout.
func (h *BrowseHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.waitTimeout)
		defer cancel()
		if _, err := session.List.WaitIdle(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			h.log.Warnf("Wait on session %s ended: %v", session.ID, err)
		}
	}

	SuccessResponse(c, http.StatusOK, "Session retrieved successfully", newSessionView(session))
}

func (h *BrowseHandler) CloseSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.useCase.Close(id); err != nil {
		ErrorResponse(c, mapErrorToStatus(err), "Failed to close session: "+err.Error())
		return
	}
	h.log.Infof("Session closed: %s", id)
	SuccessResponse(c, http.StatusOK, "Session closed successfully", nil)
}

func (h *BrowseHandler) Search(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for search: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	session.Search.SubmitValue(req.Term)
	SuccessResponse(c, http.StatusOK, "Search submitted", newSessionView(session))
}

func (h *BrowseHandler) Keystroke(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req keystrokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for keystroke: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	session.Search.Type(req.Value)
	SuccessResponse(c, http.StatusAccepted, "Keystroke recorded", newSessionView(session))
}

func (h *BrowseHandler) ClearSearch(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Search.Clear()
	SuccessResponse(c, http.StatusOK, "Search cleared", newSessionView(session))
}

func (h *BrowseHandler) Sort(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for sort: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	order, err := domain.ParseSortOrder(req.Order)
	if err != nil {
		h.log.Warnf("Invalid sort order for session %s: %s", session.ID, req.Order)
		ErrorResponse(c, mapErrorToStatus(err), "Invalid order: must be asc or desc")
		return
	}
	h.warnUnlistedColumn(req.SortBy)
	session.List.HandleSort(req.SortBy, order)
	SuccessResponse(c, http.StatusOK, "Sort applied", newSessionView(session))
}

func (h *BrowseHandler) ResetSort(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.List.ResetSort()
	SuccessResponse(c, http.StatusOK, "Sort reset", newSessionView(session))
}

func (h *BrowseHandler) ChangePage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for page change: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := session.List.HandlePageChange(req.Page); err != nil {
		h.log.Warnf("Rejected page %d for session %s: %v", req.Page, session.ID, err)
		ErrorResponse(c, mapErrorToStatus(err), "Invalid page: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Page changed", newSessionView(session))
}

func (h *BrowseHandler) ResetFilters(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Search.Reset()
	session.List.ResetFilters()
	SuccessResponse(c, http.StatusOK, "Filters reset", newSessionView(session))
}

func (h *BrowseHandler) Refresh(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.List.Refresh()
	SuccessResponse(c, http.StatusOK, "Refresh requested", newSessionView(session))
}

// warnUnlistedColumn flags sort columns outside the selectable list. They are
// still forwarded to the API unchanged.
func (h *BrowseHandler) warnUnlistedColumn(column domain.SortColumn) {
	if !column.IsSelectable() {
		h.log.Warnf("Sort column %q is not selectable, forwarding as-is", column)
	}
}

func (h *BrowseHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.log.Warnf("Invalid session ID parameter: %s", idStr)
		ErrorResponse(c, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BrowseHandler) session(c *gin.Context) (*usecase.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		return nil, false
	}
	session, err := h.useCase.Get(id)
	if err != nil {
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve session: "+err.Error())
		return nil, false
	}
	return session, true
}
