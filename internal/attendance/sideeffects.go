package attendance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

// Mailer delivers escalation emails. Optional; nil disables mail.
type Mailer interface {
	Send(to, subject, body string) error
}

// Dispatcher is the concrete Effects implementation: admin notifications,
// vehicle auto-unassignment, alert email. Everything here is fire-and-forget
// with logged failure; nothing propagates back to the transition that fired
// it.
type Dispatcher struct {
	db      *gorm.DB
	log     zerolog.Logger
	mailer  Mailer
	alertTo string
}

func NewDispatcher(db *gorm.DB, log zerolog.Logger, mailer Mailer, alertTo string) *Dispatcher {
	return &Dispatcher{db: db, log: log, mailer: mailer, alertTo: alertTo}
}

func (d *Dispatcher) notify(ctx context.Context, notificationType, title, message string, data map[string]interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		d.log.Error().Err(err).Str("type", notificationType).Msg("notification payload marshal failed")
		return
	}

	notification := models.Notification{
		Type:    notificationType,
		Title:   title,
		Message: message,
		Data:    string(payload),
	}
	if err := d.db.WithContext(ctx).Create(&notification).Error; err != nil {
		d.log.Error().Err(err).Str("type", notificationType).Msg("notification create failed")
	}
}

func (d *Dispatcher) ApprovalRequested(ctx context.Context, employee models.Employee, record models.AttendanceRecord) {
	name := employee.FirstName + " " + employee.LastName
	d.notify(ctx, models.NotificationApprovalRequest,
		"Attendance approval needed",
		fmt.Sprintf("%s submitted a clock-in for %s", name, record.Day),
		map[string]interface{}{
			"attendanceId":     record.ID,
			"employeeId":       employee.ID,
			"employeeName":     name,
			"day":              record.Day,
			"pendingCheckInAt": record.PendingCheckInAt,
		})
}

// ApprovalResolved removes the approval-request rows for the record once an
// admin has decided either way.
func (d *Dispatcher) ApprovalResolved(ctx context.Context, record models.AttendanceRecord) {
	err := d.db.WithContext(ctx).
		Where("type = ? AND data LIKE ?", models.NotificationApprovalRequest, "%"+record.ID.String()+"%").
		Delete(&models.Notification{}).Error
	if err != nil {
		d.log.Warn().Err(err).Str("attendance", record.ID.String()).Msg("approval notification cleanup failed")
	}
}

// ClockedOut releases the employee's assigned vehicle, if any. The status is
// re-verified in the update predicate so a racing manual unassignment is a
// harmless no-op.
func (d *Dispatcher) ClockedOut(ctx context.Context, employee models.Employee, record models.AttendanceRecord) {
	var vehicle models.Vehicle
	err := d.db.WithContext(ctx).
		Where("assigned_to = ? AND status = ?", employee.ID, models.VehicleAssigned).
		First(&vehicle).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			d.log.Warn().Err(err).Str("employee", employee.ID.String()).Msg("vehicle lookup failed on clock-out")
		}
		return
	}

	result := d.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("id = ? AND status = ?", vehicle.ID, models.VehicleAssigned).
		Updates(map[string]interface{}{
			"status":      models.VehicleAvailable,
			"assigned_to": nil,
			"assigned_at": nil,
		})
	if result.Error != nil {
		d.log.Warn().Err(result.Error).Str("vehicle", vehicle.ID.String()).Msg("vehicle unassign failed on clock-out")
		return
	}
	if result.RowsAffected == 0 {
		return
	}

	name := employee.FirstName + " " + employee.LastName
	d.notify(ctx, models.NotificationVehicleUnassign,
		"Vehicle released",
		fmt.Sprintf("%s (%s) was released when %s clocked out", vehicle.Plate, vehicle.Model, name),
		map[string]interface{}{
			"vehicleId":    vehicle.ID,
			"plate":        vehicle.Plate,
			"employeeId":   employee.ID,
			"employeeName": name,
			"clockOut":     record.ClockOut,
		})
}

func (d *Dispatcher) LockedOut(ctx context.Context, employee models.Employee, record models.AttendanceRecord) {
	name := employee.FirstName + " " + employee.LastName
	message := fmt.Sprintf("%s exhausted all attendance attempts on %s and is marked absent", name, record.Day)

	d.notify(ctx, models.NotificationAttendanceAlert,
		"Attendance locked",
		message,
		map[string]interface{}{
			"attendanceId": record.ID,
			"employeeId":   employee.ID,
			"employeeName": name,
			"day":          record.Day,
			"reason":       record.LockedReason,
		})

	if d.mailer != nil && d.alertTo != "" {
		if err := d.mailer.Send(d.alertTo, "Attendance locked: "+name, message); err != nil {
			d.log.Warn().Err(err).Msg("lockout alert email failed")
		}
	}
}
