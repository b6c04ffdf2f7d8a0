// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManiGOo/hcp-crm-task/services/crm/agent"
	"github.com/ManiGOo/hcp-crm-task/services/crm/handlers"
	"github.com/ManiGOo/hcp-crm-task/services/crm/store"
)

func SetupRoutes(router *gin.Engine, pipeline *agent.Pipeline, st *store.InteractionStore) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/chat", handlers.HandleChat(pipeline))
		v1.GET("/chat/ws", handlers.HandleChatWebSocket(pipeline))

		interactions := v1.Group("/interactions")
		{
			interactions.GET("", handlers.HandleListInteractions(st))
			interactions.GET("/:id", handlers.HandleGetInteraction(st))
			interactions.DELETE("/:id", handlers.HandleDeleteInteraction(st))
		}
	}
}
