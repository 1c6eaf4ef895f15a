package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

// Geocoder is the external geocoding collaborator. Reverse geocoding is only
// consulted on the area-text fallback path, never for authoritative
// coordinate assignments.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
	Geocode(ctx context.Context, query string) (lat, lng float64, err error)
}

// Policy carries the tunables of the validator and the lockout tracker.
type Policy struct {
	DefaultRadiusMeters float64
	FlexWindowMinutes   int
	RequireApproval     bool
}

// Verdict is the outcome of validating one reported position against the
// day's assignment.
type Verdict struct {
	OK             bool
	Confidence     Confidence
	Code           Code
	Details        string
	DistanceMeters float64
}

type Validator struct {
	db       *gorm.DB
	geocoder Geocoder
	policy   Policy
	log      zerolog.Logger
}

func NewValidator(db *gorm.DB, geocoder Geocoder, policy Policy, log zerolog.Logger) *Validator {
	return &Validator{db: db, geocoder: geocoder, policy: policy, log: log}
}

// Validate decides whether the reported position satisfies the employee's
// assignment for the day. Coordinate assignments are authoritative: accept
// iff distance <= radius, with a "nearby" confidence up to twice the radius.
// Area-only assignments fall back to reverse geocoding and keyword matching.
func (v *Validator) Validate(ctx context.Context, employeeID uuid.UUID, day string, lat, lng float64, at time.Time) Verdict {
	if !validCoordinate(lat, lng) {
		return Verdict{
			Confidence: ConfidenceNone,
			Code:       CodeInvalidCoordinates,
			Details:    "reported coordinates are missing or out of range",
		}
	}

	var assignment models.LocationAssignment
	err := v.db.WithContext(ctx).
		Where("employee_id = ? AND day = ?", employeeID, day).
		First(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Verdict{
				Confidence: ConfidenceNone,
				Code:       CodeNoAssignment,
				Details:    "no location assignment for today",
			}
		}
		v.log.Error().Err(err).Str("employee", employeeID.String()).Msg("assignment lookup failed")
		return Verdict{
			Confidence: ConfidenceNone,
			Code:       CodeLocationServiceError,
			Details:    "could not load today's assignment",
		}
	}

	hasCoords := assignment.Latitude != nil && assignment.Longitude != nil &&
		validCoordinate(*assignment.Latitude, *assignment.Longitude)

	if hasCoords {
		return v.validateByCoordinates(assignment, lat, lng, at)
	}
	return v.validateByArea(ctx, assignment, lat, lng, at)
}

func (v *Validator) validateByCoordinates(assignment models.LocationAssignment, lat, lng float64, at time.Time) Verdict {
	// Coordinate assignments enforce a hard attendance window, except for
	// task-based days which have no window at all.
	if !assignment.TaskBased {
		if ok, details := withinWindow(at, assignment.WindowStart, assignment.WindowEnd, 0); !ok {
			return Verdict{Confidence: ConfidenceNone, Code: CodeTimeWindowViolation, Details: details}
		}
	}

	radius := assignment.RadiusMeters
	if radius <= 0 {
		radius = v.policy.DefaultRadiusMeters
	}

	distance := distanceMeters(lat, lng, *assignment.Latitude, *assignment.Longitude)

	if distance <= radius {
		return Verdict{
			OK:             true,
			Confidence:     ConfidenceExact,
			Details:        fmt.Sprintf("within %.0fm of assigned location (%.0fm away)", radius, distance),
			DistanceMeters: distance,
		}
	}

	confidence := ConfidenceNone
	if distance <= 2*radius {
		confidence = ConfidenceNearby
	}
	return Verdict{
		Confidence:     confidence,
		Code:           CodeLocationMismatch,
		Details:        fmt.Sprintf("%.0fm from assigned location, allowed radius %.0fm", distance, radius),
		DistanceMeters: distance,
	}
}

func (v *Validator) validateByArea(ctx context.Context, assignment models.LocationAssignment, lat, lng float64, at time.Time) Verdict {
	if strings.TrimSpace(assignment.Area) == "" {
		return Verdict{
			Confidence: ConfidenceNone,
			Code:       CodeAssignedCoordsMissing,
			Details:    "assignment has neither usable coordinates nor an area",
		}
	}

	// Area-only assignments get a flexible window; task-based days none.
	if !assignment.TaskBased {
		if ok, details := withinWindow(at, assignment.WindowStart, assignment.WindowEnd, v.policy.FlexWindowMinutes); !ok {
			return Verdict{Confidence: ConfidenceNone, Code: CodeTimeWindowViolation, Details: details}
		}
	}

	keywords, city := areaKeywords(assignment.Area)
	if len(keywords) == 0 && len(city) == 0 {
		return Verdict{
			Confidence: ConfidenceNone,
			Code:       CodeAssignedLocationGeneric,
			Details:    "assigned area is too generic to match against",
		}
	}

	address, err := v.geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		v.log.Warn().Err(err).Msg("reverse geocoding failed")
		return Verdict{
			Confidence: ConfidenceNone,
			Code:       CodeLocationServiceError,
			Details:    "location service unavailable, try again",
		}
	}

	normalized := strings.ToLower(address)
	for _, keyword := range keywords {
		if strings.Contains(normalized, keyword) {
			return Verdict{
				OK:         true,
				Confidence: ConfidenceExact,
				Details:    "reported address matches assigned area " + assignment.Area,
			}
		}
	}
	for _, keyword := range city {
		if strings.Contains(normalized, keyword) {
			return Verdict{
				Confidence: ConfidenceCity,
				Code:       CodeCityLevelMatch,
				Details:    "only the city matches the assigned area, report from " + assignment.Area,
			}
		}
	}
	return Verdict{
		Confidence: ConfidenceNone,
		Code:       CodeLocationMismatch,
		Details:    "reported address does not match assigned area " + assignment.Area,
	}
}

// areaKeywords splits an assigned area like "Indiranagar, Bangalore" into
// specific keywords and city-level keywords. The last comma segment is
// treated as the city when more than one segment is present. Tokens of three
// characters or more survive normalization.
func areaKeywords(area string) (specific []string, city []string) {
	segments := strings.Split(area, ",")

	tokenize := func(segment string) []string {
		var tokens []string
		for _, field := range strings.Fields(segment) {
			token := strings.ToLower(strings.Trim(field, ".,-()"))
			if len(token) > 2 {
				tokens = append(tokens, token)
			}
		}
		return tokens
	}

	if len(segments) == 1 {
		return tokenize(segments[0]), nil
	}
	for _, segment := range segments[:len(segments)-1] {
		specific = append(specific, tokenize(segment)...)
	}
	city = tokenize(segments[len(segments)-1])
	return specific, city
}

// withinWindow checks the wall clock of at against an "HH:MM" window widened
// by flexMinutes on both sides. Empty bounds are open.
func withinWindow(at time.Time, start, end string, flexMinutes int) (bool, string) {
	minuteOfDay := at.Hour()*60 + at.Minute()

	if start != "" {
		parsed, err := time.Parse("15:04", start)
		if err == nil {
			earliest := parsed.Hour()*60 + parsed.Minute() - flexMinutes
			if minuteOfDay < earliest {
				return false, fmt.Sprintf("attendance window opens at %s", start)
			}
		}
	}
	if end != "" {
		parsed, err := time.Parse("15:04", end)
		if err == nil {
			latest := parsed.Hour()*60 + parsed.Minute() + flexMinutes
			if minuteOfDay > latest {
				return false, fmt.Sprintf("attendance window closed at %s", end)
			}
		}
	}
	return true, ""
}
