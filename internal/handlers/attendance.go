package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"staffhub-backend/internal/attendance"
	"staffhub-backend/internal/middleware"
	"staffhub-backend/internal/models"
)

type AttendanceHandler struct {
	DB      *gorm.DB
	Service *attendance.Service
}

func NewAttendanceHandler(db *gorm.DB, service *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{DB: db, Service: service}
}

type attendanceSubmitRequest struct {
	EmployeeID string   `json:"employeeId"`
	Action     string   `json:"action"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Location   string   `json:"location"`
	DeviceInfo string   `json:"deviceInfo"`
	Photo      string   `json:"photo"`
}

type dailyClockInRequest struct {
	EmployeeID string   `json:"employeeId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Location   string   `json:"location"`
	DeviceInfo string   `json:"deviceInfo"`
	Photo      string   `json:"photo"`
}

// engineError maps a structured engine failure onto an HTTP response. The
// code travels with the body so clients can branch without string-matching
// the details.
func engineError(c *gin.Context, err error) {
	var engineErr *attendance.Error
	if !errors.As(err, &engineErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attendance operation failed"})
		return
	}

	payload := gin.H{"error": engineErr.Details, "code": engineErr.Code}
	if engineErr.Remaining != nil {
		payload["remainingAttempts"] = *engineErr.Remaining
	}
	c.JSON(statusForCode(engineErr.Code), payload)
}

func statusForCode(code attendance.Code) int {
	switch code {
	case attendance.CodeEmployeeNotFound, attendance.CodeNoAssignment, attendance.CodeAttendanceNotFound:
		return http.StatusNotFound
	case attendance.CodeInvalidCoordinates, attendance.CodeMissingCoordinates:
		return http.StatusBadRequest
	case attendance.CodeAttendanceLocked, attendance.CodeMaxAttemptsExceeded:
		return http.StatusLocked
	case attendance.CodeCannotCheckoutWithoutCheckin, attendance.CodeNotPending,
		attendance.CodeNotApproved, attendance.CodeAttendanceRejected:
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}

// resolveEmployeeID picks the acting employee: employees always act as
// themselves, admins and managers name a target in the request.
func resolveEmployeeID(c *gin.Context, requested string) (uuid.UUID, bool) {
	role, _ := c.Get(middleware.ContextRole)
	if role == "employee" {
		contextEmployeeID, ok := c.Get(middleware.ContextEmployeeID)
		if !ok || contextEmployeeID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return uuid.Nil, false
		}
		requested = contextEmployeeID.(string)
	} else if requested == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employeeId required"})
		return uuid.Nil, false
	}

	id, err := uuid.Parse(requested)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *AttendanceHandler) DailyClockIn(c *gin.Context) {
	var req dailyClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	employeeID, ok := resolveEmployeeID(c, req.EmployeeID)
	if !ok {
		return
	}

	record, err := h.Service.DailyClockIn(c.Request.Context(), employeeID, attendance.Evidence{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Location:   req.Location,
		IPAddress:  c.ClientIP(),
		DeviceInfo: req.DeviceInfo,
		Photo:      req.Photo,
	})
	if err != nil {
		engineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending": record.ApprovalStatus == models.ApprovalPending,
		"record":  record,
	})
}

func (h *AttendanceHandler) DailyClockOut(c *gin.Context) {
	var req dailyClockInRequest
	_ = c.ShouldBindJSON(&req)

	employeeID, ok := resolveEmployeeID(c, req.EmployeeID)
	if !ok {
		return
	}

	result, err := h.Service.DailyClockOut(c.Request.Context(), employeeID)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req attendanceSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	action, err := attendance.ParseClockAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	employeeID, ok := resolveEmployeeID(c, req.EmployeeID)
	if !ok {
		return
	}

	role, _ := c.Get(middleware.ContextRole)
	source := models.SourceSelf
	if role == "admin" || role == "manager" {
		source = models.SourceAdmin
	}

	record, err := h.Service.Submit(c.Request.Context(), attendance.SubmitInput{
		EmployeeID: employeeID,
		Action:     action,
		Source:     source,
		Evidence: attendance.Evidence{
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			Location:   req.Location,
			IPAddress:  c.ClientIP(),
			DeviceInfo: req.DeviceInfo,
			Photo:      req.Photo,
		},
	})
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *AttendanceHandler) Status(c *gin.Context) {
	employeeID, ok := resolveEmployeeID(c, c.Query("employeeId"))
	if !ok {
		return
	}

	status, err := h.Service.DailyStatus(c.Request.Context(), employeeID)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *AttendanceHandler) Attempts(c *gin.Context) {
	employeeID, ok := resolveEmployeeID(c, c.Query("employeeId"))
	if !ok {
		return
	}

	attempts, err := h.Service.RemainingAttempts(c.Request.Context(), employeeID)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (h *AttendanceHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.AttendanceRecord{})

	role, _ := c.Get(middleware.ContextRole)
	if role == "employee" {
		employeeID, ok := c.Get(middleware.ContextEmployeeID)
		if !ok || employeeID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		query = query.Where("employee_id = ?", employeeID)
	} else if employeeID := c.Query("employeeId"); employeeID != "" {
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
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var records []models.AttendanceRecord
	if err := query.Order("day desc, created_at desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load attendance"})
		return
	}
	c.JSON(http.StatusOK, records)
}
