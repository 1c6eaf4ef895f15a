package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

type SettingsHandler struct {
	DB *gorm.DB
}

type updatePolicyRequest struct {
	DefaultRadiusMeters *float64 `json:"defaultRadiusMeters"`
	FlexWindowMinutes   *int     `json:"flexWindowMinutes"`
	RequireApproval     *bool    `json:"requireApproval"`
}

const (
	settingDefaultRadius   = "attendance_default_radius_m"
	settingFlexWindow      = "attendance_flex_window_minutes"
	settingRequireApproval = "attendance_require_approval"
)

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{DB: db}
}

// GetPolicy exposes the stored attendance policy knobs. Stored values mirror
// the env defaults; changes take effect on the next restart.
func (h *SettingsHandler) GetPolicy(c *gin.Context) {
	keys := []string{settingDefaultRadius, settingFlexWindow, settingRequireApproval}
	var settings []models.Setting
	if err := h.DB.Where("`key` IN ?", keys).Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load policy"})
		return
	}

	values := map[string]string{}
	for _, setting := range settings {
		values[setting.Key] = strings.TrimSpace(setting.Value)
	}

	c.JSON(http.StatusOK, gin.H{
		"defaultRadiusMeters": values[settingDefaultRadius],
		"flexWindowMinutes":   values[settingFlexWindow],
		"requireApproval":     values[settingRequireApproval],
	})
}

func (h *SettingsHandler) UpdatePolicy(c *gin.Context) {
	var req updatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	updates := map[string]string{}
	if req.DefaultRadiusMeters != nil {
		if *req.DefaultRadiusMeters <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be positive"})
			return
		}
		updates[settingDefaultRadius] = strconv.FormatFloat(*req.DefaultRadiusMeters, 'f', -1, 64)
	}
	if req.FlexWindowMinutes != nil {
		if *req.FlexWindowMinutes < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "flex window cannot be negative"})
			return
		}
		updates[settingFlexWindow] = strconv.Itoa(*req.FlexWindowMinutes)
	}
	if req.RequireApproval != nil {
		updates[settingRequireApproval] = strconv.FormatBool(*req.RequireApproval)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	for key, value := range updates {
		var setting models.Setting
		err := h.DB.Where("`key` = ?", key).Take(&setting).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				setting = models.Setting{Key: key, Value: value}
				if createErr := h.DB.Create(&setting).Error; createErr != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
					return
				}
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}

		setting.Value = value
		if err := h.DB.Save(&setting).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}

	h.GetPolicy(c)
}
