package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/converse/errors"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20

	// Local disk uploads are served straight from the uploads dir.
	if s.Config.AWSBucket == "" {
		r.Static("/uploads", "./"+s.Config.UploadsDir)
	}

	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Minute, Limit: 10})
	limitLogin := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      loginRateKey,
	})

	router.GET("/health", s.handleHealthCheck())

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", limitLogin, s.handleLogin())
	apirouter.GET("/auth/google/login", s.handleGoogleLogin())
	apirouter.GET("/auth/google/callback", s.handleGoogleCallback())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.GET("/me", s.handleShowProfile())
	authorized.DELETE("/me", s.handleDeactivateAccount())
	authorized.GET("/users", s.handleGetAllUsers())
	authorized.GET("/users/:id", s.handleGetUserByID())

	authorized.POST("/conversations", s.handleCreateConversation())
	authorized.GET("/conversations", s.handleGetUserConversations())
	authorized.GET("/conversations/:id/messages", s.handleGetConversationMessages())
	authorized.POST("/messages", s.handleSendMessage())

	authorized.GET("/me/pictures", s.handleGetMyPictures())
	authorized.POST("/me/pictures", s.handleUploadPictures())
	authorized.PATCH("/me/pictures/:pictureID/default", s.handleSetDefaultPicture())
	authorized.DELETE("/me/pictures/:pictureID", s.handleDeletePicture())
}
