package api

import (
	authUsecase "mailtriage-backend/internal/auth/usecase"
	emailDelivery "mailtriage-backend/internal/email/delivery"
	emailUsecasePkg "mailtriage-backend/internal/email/usecase"
	"mailtriage-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase  authUsecase.AuthUsecase
	emailHandler *emailDelivery.EmailHandler
	config       *config.Config
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	importUc emailUsecasePkg.ImportUsecase,
	messageUc emailUsecasePkg.MessageUsecase,
	categoryUc emailUsecasePkg.CategoryUsecase,
	searchUc emailUsecasePkg.SearchUsecase,
	statsUc emailUsecasePkg.StatsUsecase,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authUsecase:  authUc,
		emailHandler: emailDelivery.NewEmailHandler(importUc, messageUc, categoryUc, searchUc, statsUc),
		config:       cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.emailHandler)

	return r.Run(addr)
}
