package api

import "github.com/gin-gonic/gin"

// NewRouter wires the handler into a gin engine
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", h.Healthz)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/workflows", h.CreateWorkflow)
		v1.GET("/workflows", h.ListWorkflows)
		v1.GET("/workflows/:id", h.GetWorkflow)
		v1.POST("/workflows/:id/deactivate", h.DeactivateWorkflow)

		v1.POST("/requests", h.CreateRequest)
		v1.GET("/requests", h.ListRequests)
		v1.GET("/requests/:id", h.GetRequest)
		v1.POST("/requests/:id/decisions", h.SubmitDecision)

		v1.GET("/approvals/pending", h.ListPendingApprovals)
	}

	return router
}
