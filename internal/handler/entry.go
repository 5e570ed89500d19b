package handler

import (
	"net/http"

	"echo-diary/internal/middleware"
	"echo-diary/internal/model"
	"echo-diary/internal/service"

	"github.com/gin-gonic/gin"
)

type EntryHandler struct{ diaries *service.DiaryService }

func NewEntryHandler(diaries *service.DiaryService) *EntryHandler {
	return &EntryHandler{diaries: diaries}
}

func (h *EntryHandler) Generate(c *gin.Context) {
	var req model.EntryGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	e, err := h.diaries.GenerateEntry(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.EntryGenerateResponse{
		ID:          e.ID,
		Draft:       e.Draft,
		Status:      e.Status,
		ImageStatus: e.ImageStatus,
	})
}

func (h *EntryHandler) Save(c *gin.Context) {
	var req model.EntrySaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	e, err := h.diaries.SaveEntry(c.Request.Context(), middleware.CurrentUser(c), c.Param("entry_id"), req.Draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.EntrySaveResponse{ID: e.ID, Status: e.Status})
}

func (h *EntryHandler) List(c *gin.Context) {
	entries, err := h.diaries.ListEntries(c.Request.Context(), middleware.CurrentUser(c), c.Param("diary_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *EntryHandler) Image(c *gin.Context) {
	data, contentType, err := h.diaries.EntryImage(c.Request.Context(), middleware.CurrentUser(c), c.Param("entry_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
