package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

type VehicleHandler struct {
	DB *gorm.DB
}

type createVehicleRequest struct {
	Plate string `json:"plate" binding:"required"`
	Model string `json:"model"`
}

type assignVehicleRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
}

func NewVehicleHandler(db *gorm.DB) *VehicleHandler {
	return &VehicleHandler{DB: db}
}

func (h *VehicleHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.Vehicle{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if employeeID := c.Query("employeeId"); employeeID != "" {
		id, err := uuid.Parse(employeeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
			return
		}
		query = query.Where("assigned_to = ?", id)
	}

	var vehicles []models.Vehicle
	if err := query.Order("created_at desc").Find(&vehicles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load vehicles"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	vehicle := models.Vehicle{
		Plate:  req.Plate,
		Model:  req.Model,
		Status: models.VehicleAvailable,
	}
	if err := h.DB.Create(&vehicle).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "vehicle already exists"})
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *VehicleHandler) Assign(c *gin.Context) {
	var req assignVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
		return
	}

	var employee models.Employee
	if err := h.DB.First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}

	now := time.Now()
	// The status predicate keeps two concurrent assigns from both winning.
	result := h.DB.Model(&models.Vehicle{}).
		Where("id = ? AND status = ?", vehicleID, models.VehicleAvailable).
		Updates(map[string]interface{}{
			"status":      models.VehicleAssigned,
			"assigned_to": employeeID,
			"assigned_at": now,
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assign failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "vehicle is not available"})
		return
	}

	vehicle.Status = models.VehicleAssigned
	vehicle.AssignedTo = &employeeID
	vehicle.AssignedAt = &now
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandler) Unassign(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Model(&models.Vehicle{}).
		Where("id = ? AND status = ?", vehicleID, models.VehicleAssigned).
		Updates(map[string]interface{}{
			"status":      models.VehicleAvailable,
			"assigned_to": nil,
			"assigned_at": nil,
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unassign failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "vehicle is not assigned"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unassigned"})
}

func (h *VehicleHandler) Delete(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.DB.Delete(&models.Vehicle{}, "id = ?", vehicleID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
