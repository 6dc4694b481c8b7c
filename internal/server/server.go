package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/handler"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/middleware"
)

// Server owns the HTTP surface.
type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

func NewServer(
	analysisHandler *handler.AnalysisHandler,
	authHandler *handler.AuthHandler,
	jwtSecret string,
	logger *zap.Logger,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	s := &Server{
		router: router,
		logger: logger,
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Misinformation Detector API is running"})
	})

	// Authentication
	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)

	// Analysis. These stay open, with user_id carried in the body or
	// query, so the dashboard works without a login.
	router.POST("/predict", analysisHandler.Predict)
	router.POST("/analyze_url", analysisHandler.AnalyzeURL)
	router.GET("/history", analysisHandler.History)
	router.POST("/update_feedback", analysisHandler.UpdateFeedback)
	router.GET("/stats", analysisHandler.Stats)
	router.POST("/clear_history", analysisHandler.ClearHistory)
	router.POST("/save_with_feedback", analysisHandler.SaveWithFeedback)

	// Authenticated routes
	authRequired := router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(jwtSecret, logger))
	{
		authRequired.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"user_id": c.MustGet("user_id"),
				"email":   c.MustGet("email"),
			})
		})
	}

	return s
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// HTTPServer returns an http.Server bound to addr, ready for graceful
// shutdown by the caller.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}
