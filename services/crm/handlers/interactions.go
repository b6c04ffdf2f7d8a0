// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ManiGOo/hcp-crm-task/services/crm/store"
)

const defaultListLimit = 50

// HandleListInteractions returns stored interactions in id order.
// skip/limit query params page through the set.
func HandleListInteractions(st *store.InteractionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		skip := intQuery(c, "skip", 0)
		limit := intQuery(c, "limit", defaultListLimit)
		if skip < 0 || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "skip and limit must be non-negative"})
			return
		}

		records, err := st.ListRecords(c.Request.Context(), skip, limit)
		if err != nil {
			slog.Error("Failed to list interactions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list interactions"})
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

// HandleGetInteraction fetches a single interaction by id.
func HandleGetInteraction(st *store.InteractionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
			return
		}

		record, err := st.GetRecord(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "interaction not found"})
			return
		}
		if err != nil {
			slog.Error("Failed to fetch interaction", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch interaction"})
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// HandleDeleteInteraction removes an interaction by id.
func HandleDeleteInteraction(st *store.InteractionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
			return
		}

		err = st.DeleteRecord(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "interaction not found"})
			return
		}
		if err != nil {
			slog.Error("Failed to delete interaction", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete interaction"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
