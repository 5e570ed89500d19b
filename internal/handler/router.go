package handler

import (
	"net/http"

	"echo-diary/internal/middleware"
	"echo-diary/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(auth *service.AuthService, diaries *service.DiaryService) *gin.Engine {
	authH := NewAuthHandler(auth)
	diaryH := NewDiaryHandler(diaries)
	entryH := NewEntryHandler(diaries)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog(), middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "echodiary", "status": "running"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/auth/signup", authH.Signup)
	r.POST("/api/auth/login", authH.Login)

	api := r.Group("/api", middleware.JWTAuth(auth))
	api.GET("/auth/me", authH.Me)
	api.GET("/admin/users", middleware.RequireAdmin(), authH.ListUsers)

	api.POST("/personas", diaryH.CreatePersona)
	api.GET("/personas", diaryH.ListPersonas)
	api.POST("/personas/:persona_id/image", diaryH.PersonaImage)

	api.POST("/diaries", diaryH.CreateDiary)
	api.GET("/diaries", diaryH.ListDiaries)
	api.DELETE("/diaries/:diary_id", diaryH.DeleteDiary)
	api.POST("/diaries/:diary_id/personas/:persona_id", diaryH.LinkPersona)
	api.GET("/diaries/:diary_id/entries", entryH.List)

	api.POST("/entries/generate", entryH.Generate)
	api.POST("/entries/:entry_id/save", entryH.Save)
	api.GET("/entries/:entry_id/image", entryH.Image)

	return r
}
