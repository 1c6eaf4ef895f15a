package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"staffhub-backend/internal/attendance"
	"staffhub-backend/internal/middleware"
	"staffhub-backend/internal/models"
)

type AssignmentHandler struct {
	DB       *gorm.DB
	Geocoder attendance.Geocoder
}

type assignmentRequest struct {
	EmployeeID   string   `json:"employeeId" binding:"required"`
	Day          string   `json:"day" binding:"required"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters float64  `json:"radiusMeters"`
	Area         string   `json:"area"`
	WindowStart  string   `json:"windowStart"`
	WindowEnd    string   `json:"windowEnd"`
	TaskBased    bool     `json:"taskBased"`
	// Resolve asks the server to forward-geocode Area into coordinates.
	Resolve bool `json:"resolve"`
}

func NewAssignmentHandler(db *gorm.DB, geocoder attendance.Geocoder) *AssignmentHandler {
	return &AssignmentHandler{DB: db, Geocoder: geocoder}
}

func (h *AssignmentHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.LocationAssignment{})

	if employeeID := c.Query("employeeId"); employeeID != "" {
		id, err := uuid.Parse(employeeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
			return
		}
		query = query.Where("employee_id = ?", id)
	}
	if day := c.Query("day"); day != "" {
		query = query.Where("day = ?", day)
	}

	var assignments []models.LocationAssignment
	if err := query.Order("day desc").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load assignments"})
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// Mine returns the calling employee's assignment for today.
func (h *AssignmentHandler) Mine(c *gin.Context) {
	employeeID, ok := c.Get(middleware.ContextEmployeeID)
	if !ok || employeeID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	id, err := uuid.Parse(employeeID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
		return
	}

	day := time.Now().Format("2006-01-02")
	var assignment models.LocationAssignment
	if err := h.DB.Where("employee_id = ? AND day = ?", id, day).First(&assignment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "no assignment for today"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load assignment"})
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// Upsert creates or replaces the assignment for an (employee, day) pair.
func (h *AssignmentHandler) Upsert(c *gin.Context) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day"})
		return
	}
	for _, window := range []string{req.WindowStart, req.WindowEnd} {
		if window == "" {
			continue
		}
		if _, err := time.Parse("15:04", window); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window time"})
			return
		}
	}

	area := strings.TrimSpace(req.Area)
	if req.Latitude == nil && req.Longitude == nil && area == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates or area required"})
		return
	}

	var employee models.Employee
	if err := h.DB.First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	latitude, longitude := req.Latitude, req.Longitude
	if req.Resolve && latitude == nil && area != "" {
		lat, lng, err := h.Geocoder.Geocode(c.Request.Context(), area)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not resolve area to coordinates"})
			return
		}
		latitude, longitude = &lat, &lng
	}

	assignment := models.LocationAssignment{
		EmployeeID:   employeeID,
		Day:          req.Day,
		Latitude:     latitude,
		Longitude:    longitude,
		RadiusMeters: req.RadiusMeters,
		Area:         area,
		WindowStart:  req.WindowStart,
		WindowEnd:    req.WindowEnd,
		TaskBased:    req.TaskBased,
	}

	var existing models.LocationAssignment
	err = h.DB.Where("employee_id = ? AND day = ?", employeeID, req.Day).First(&existing).Error
	if err == nil {
		assignment.ID = existing.ID
		assignment.CreatedAt = existing.CreatedAt
		if err := h.DB.Save(&assignment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		c.JSON(http.StatusOK, assignment)
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	if err := h.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *AssignmentHandler) Delete(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.DB.Delete(&models.LocationAssignment{}, "id = ?", assignmentID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
