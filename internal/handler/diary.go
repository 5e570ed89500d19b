package handler

import (
	"net/http"
	"strconv"

	"echo-diary/internal/logger"
	"echo-diary/internal/middleware"
	"echo-diary/internal/model"
	"echo-diary/internal/service"

	"github.com/gin-gonic/gin"
)

type DiaryHandler struct{ diaries *service.DiaryService }

func NewDiaryHandler(diaries *service.DiaryService) *DiaryHandler {
	return &DiaryHandler{diaries: diaries}
}

func (h *DiaryHandler) CreatePersona(c *gin.Context) {
	var req model.PersonaCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	p, err := h.diaries.CreatePersona(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("persona.created", "persona_id", p.ID, "account_id", p.AccountID)
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "name": p.Name})
}

func (h *DiaryHandler) ListPersonas(c *gin.Context) {
	personas, err := h.diaries.ListPersonas(c.Request.Context(), middleware.CurrentUser(c), c.Query("account_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]model.PersonaSummary, 0, len(personas))
	for _, p := range personas {
		out = append(out, model.PersonaSummary{ID: p.ID, Name: p.Name, Tone: p.Tone})
	}
	c.JSON(http.StatusOK, out)
}

func (h *DiaryHandler) PersonaImage(c *gin.Context) {
	resp, err := h.diaries.GeneratePersonaImage(c.Request.Context(), middleware.CurrentUser(c), c.Param("persona_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DiaryHandler) CreateDiary(c *gin.Context) {
	var req model.DiaryCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	d, err := h.diaries.CreateDiary(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("diary.created", "diary_id", d.ID, "account_id", d.AccountID)
	c.JSON(http.StatusOK, gin.H{"id": d.ID, "title": d.Title})
}

func (h *DiaryHandler) ListDiaries(c *gin.Context) {
	diaries, err := h.diaries.ListDiaries(c.Request.Context(), middleware.CurrentUser(c), c.Query("account_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]model.DiarySummary, 0, len(diaries))
	for _, d := range diaries {
		out = append(out, model.DiarySummary{ID: d.ID, Title: d.Title, DefaultPersonaID: d.DefaultPersonaID})
	}
	c.JSON(http.StatusOK, out)
}

func (h *DiaryHandler) DeleteDiary(c *gin.Context) {
	if err := h.diaries.DeleteDiary(c.Request.Context(), middleware.CurrentUser(c), c.Param("diary_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *DiaryHandler) LinkPersona(c *gin.Context) {
	makeDefault, _ := strconv.ParseBool(c.DefaultQuery("default", "false"))
	status, err := h.diaries.LinkPersona(c.Request.Context(), middleware.CurrentUser(c),
		c.Param("diary_id"), c.Param("persona_id"), makeDefault)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
