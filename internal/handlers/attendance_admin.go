package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staffhub-backend/internal/middleware"
	"staffhub-backend/internal/models"
)

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func adminID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(middleware.ContextUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(userID.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}

func attendanceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// Pending lists the clock-ins waiting for an admin decision.
func (h *AttendanceHandler) Pending(c *gin.Context) {
	var records []models.AttendanceRecord
	if err := h.DB.
		Where("approval_status = ?", models.ApprovalPending).
		Where("pending_check_in_at IS NOT NULL").
		Order("pending_check_in_at asc").
		Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load pending attendance"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) Approve(c *gin.Context) {
	recordID, ok := attendanceID(c)
	if !ok {
		return
	}
	actor, ok := adminID(c)
	if !ok {
		return
	}

	record, err := h.Service.Approve(c.Request.Context(), recordID, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *AttendanceHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}

	recordID, ok := attendanceID(c)
	if !ok {
		return
	}
	actor, ok := adminID(c)
	if !ok {
		return
	}

	record, err := h.Service.Reject(c.Request.Context(), recordID, actor, req.Reason)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *AttendanceHandler) ReEnable(c *gin.Context) {
	recordID, ok := attendanceID(c)
	if !ok {
		return
	}
	actor, ok := adminID(c)
	if !ok {
		return
	}

	record, err := h.Service.ReEnable(c.Request.Context(), recordID, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
