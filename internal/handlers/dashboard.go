package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	today := time.Now().Format("2006-01-02")

	var employeeCount int64
	_ = h.DB.Model(&models.Employee{}).Count(&employeeCount).Error

	var clockedIn int64
	_ = h.DB.Model(&models.AttendanceRecord{}).
		Where("day = ? AND clock_in IS NOT NULL AND clock_out IS NULL", today).
		Count(&clockedIn).Error

	var pendingApprovals int64
	_ = h.DB.Model(&models.AttendanceRecord{}).
		Where("approval_status = ? AND pending_check_in_at IS NOT NULL", models.ApprovalPending).
		Count(&pendingApprovals).Error

	var lockedToday int64
	_ = h.DB.Model(&models.AttendanceRecord{}).
		Where("day = ? AND locked = ?", today, true).
		Count(&lockedToday).Error

	var assignedVehicles int64
	_ = h.DB.Model(&models.Vehicle{}).
		Where("status = ?", models.VehicleAssigned).
		Count(&assignedVehicles).Error

	var unreadNotifications int64
	_ = h.DB.Model(&models.Notification{}).
		Where("`read` = ?", false).
		Count(&unreadNotifications).Error

	c.JSON(http.StatusOK, gin.H{
		"employees":           employeeCount,
		"clockedInNow":        clockedIn,
		"pendingApprovals":    pendingApprovals,
		"lockedToday":         lockedToday,
		"assignedVehicles":    assignedVehicles,
		"unreadNotifications": unreadNotifications,
	})
}
