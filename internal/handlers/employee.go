package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"staffhub-backend/internal/middleware"
	"staffhub-backend/internal/models"
	"staffhub-backend/internal/utils"
)

type EmployeeHandler struct {
	DB *gorm.DB
}

type employeeRequest struct {
	DisplayID string `json:"displayId" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	Position  string `json:"position"`
	HiredAt   string `json:"hiredAt" binding:"required"`
}

type createEmployeeUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func NewEmployeeHandler(db *gorm.DB) *EmployeeHandler {
	return &EmployeeHandler{DB: db}
}

func normalizeEmployeeRole(value string) (string, bool) {
	role := strings.ToLower(strings.TrimSpace(value))
	if role == "" {
		return "employee", true
	}
	if role == "employee" || role == "manager" {
		return role, true
	}
	return "", false
}

func (h *EmployeeHandler) List(c *gin.Context) {
	role, _ := c.Get(middleware.ContextRole)
	if role == "employee" {
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
		var employee models.Employee
		if err := h.DB.First(&employee, "id = ?", id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
			return
		}
		c.JSON(http.StatusOK, []models.Employee{employee})
		return
	}

	var employees []models.Employee
	if err := h.DB.Order("created_at desc").Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load employees"})
		return
	}
	c.JSON(http.StatusOK, employees)
}

// Resolve looks up an employee by the human-facing display id on badges and
// clock-in terminals.
func (h *EmployeeHandler) Resolve(c *gin.Context) {
	displayID := strings.TrimSpace(c.Param("displayId"))
	if displayID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "displayId required"})
		return
	}

	var employee models.Employee
	if err := h.DB.Where("display_id = ?", displayID).First(&employee).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	normalizedEmail := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.Employee
	if err := h.DB.Where("email = ? OR display_id = ?", normalizedEmail, req.DisplayID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "employee already exists"})
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	hiredAt, err := time.Parse("2006-01-02", req.HiredAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hiredAt"})
		return
	}

	role, validRole := normalizeEmployeeRole(req.Role)
	if !validRole {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	employee := models.Employee{
		DisplayID: strings.TrimSpace(req.DisplayID),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     normalizedEmail,
		Role:      role,
		Phone:     req.Phone,
		Position:  req.Position,
		HiredAt:   hiredAt,
	}

	if err := h.DB.Create(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	c.JSON(http.StatusCreated, employee)
}

func (h *EmployeeHandler) Update(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	hiredAt, err := time.Parse("2006-01-02", req.HiredAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hiredAt"})
		return
	}

	role, validRole := normalizeEmployeeRole(req.Role)
	if !validRole {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	var employee models.Employee
	if err := h.DB.First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	normalizedEmail := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.Employee
	if err := h.DB.Where("email = ? AND id <> ?", normalizedEmail, employeeID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	employee.DisplayID = strings.TrimSpace(req.DisplayID)
	employee.FirstName = req.FirstName
	employee.LastName = req.LastName
	employee.Email = normalizedEmail
	employee.Role = role
	employee.Phone = req.Phone
	employee.Position = req.Position
	employee.HiredAt = hiredAt

	if err := h.DB.Save(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	_ = h.DB.Model(&models.User{}).
		Where("employee_id = ?", employeeID).
		Updates(map[string]interface{}{
			"email": normalizedEmail,
			"name":  employee.FirstName + " " + employee.LastName,
			"role":  employee.Role,
		}).Error

	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) Delete(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var employee models.Employee
	if err := h.DB.First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	if err := h.DB.Delete(&models.Employee{}, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *EmployeeHandler) CreateUser(c *gin.Context) {
	var req createEmployeeUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var employee models.Employee
	if err := h.DB.First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	normalizedEmail := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.User
	if err := h.DB.Where("email = ?", normalizedEmail).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password error"})
		return
	}

	roleName, validRole := normalizeEmployeeRole(req.Role)
	if !validRole {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	user := models.User{
		Email:        normalizedEmail,
		PasswordHash: passwordHash,
		Name:         employee.FirstName + " " + employee.LastName,
		Role:         roleName,
		EmployeeID:   &employee.ID,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user creation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"employeeId": user.EmployeeID,
	})
}
