package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type offeringRepository interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error)
	Create(ctx context.Context, offering *models.Offering) error
	SetActive(ctx context.Context, exec sqlx.ExtContext, id string, active bool) error
}

type timeSlotRepository interface {
	List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, int, error)
	ListActiveByScope(ctx context.Context, scope academic.Scope) ([]models.TimeSlot, error)
	ListActiveInScope(ctx context.Context, exec sqlx.ExtContext, scope academic.Scope, day academic.Weekday) ([]models.TimeSlot, error)
	LockScopes(ctx context.Context, exec sqlx.ExtContext, scopes ...academic.Scope) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error
	Update(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error
	DeactivateByOffering(ctx context.Context, exec sqlx.ExtContext, offeringID string) error
	Delete(ctx context.Context, id string) error
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type currentPeriodReader interface {
	FindCurrentPeriod(ctx context.Context) (*models.AcademicPeriod, error)
}

// CreateOfferingRequest binds a subject and teacher to a section.
type CreateOfferingRequest struct {
	SectionID        string `json:"section_id" validate:"required"`
	TeacherID        string `json:"teacher_id" validate:"required"`
	SubjectID        string `json:"subject_id" validate:"required"`
	AcademicPeriodID string `json:"academic_period_id" validate:"required"`
}

// CreateTimeSlotRequest describes payload for creating a slot.
type CreateTimeSlotRequest struct {
	OfferingID string  `json:"offering_id" validate:"required"`
	DayOfWeek  string  `json:"day_of_week" validate:"required,weekday"`
	StartTime  string  `json:"start_time" validate:"required,clock"`
	EndTime    string  `json:"end_time" validate:"required,clock"`
	Classroom  *string `json:"classroom" validate:"omitempty,max=64"`
	Notes      *string `json:"notes" validate:"omitempty,max=255"`
}

// UpdateTimeSlotRequest updates an existing slot. The offering never changes.
type UpdateTimeSlotRequest struct {
	DayOfWeek string  `json:"day_of_week" validate:"required,weekday"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   string  `json:"end_time" validate:"required,clock"`
	Classroom *string `json:"classroom" validate:"omitempty,max=64"`
	Notes     *string `json:"notes" validate:"omitempty,max=255"`
	Active    *bool   `json:"active"`
}

// BulkCreateTimeSlotsRequest holds multiple slots for creation.
type BulkCreateTimeSlotsRequest struct {
	Items          []CreateTimeSlotRequest `json:"items" validate:"required,min=1,max=200,dive"`
	PartialOnError bool                    `json:"partial_on_error"`
}

// BulkCreateTimeSlotsResult summarises bulk creation results.
type BulkCreateTimeSlotsResult struct {
	Created   []models.TimeSlot         `json:"created"`
	Conflicts []models.ScheduleConflict `json:"conflicts,omitempty"`
}

// ScheduleService owns offerings and keeps every timetable free of overlaps.
type ScheduleService struct {
	offerings offeringRepository
	slots     timeSlotRepository
	sections  sectionReader
	periods   currentPeriodReader
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(
	offerings offeringRepository,
	slots timeSlotRepository,
	sections sectionReader,
	periods currentPeriodReader,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScheduleService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		offerings: offerings,
		slots:     slots,
		sections:  sections,
		periods:   periods,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the clock used by TodaySlots.
func (s *ScheduleService) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateOffering registers a new offering for a section.
func (s *ScheduleService) CreateOffering(ctx context.Context, req CreateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	section, err := s.sections.FindByID(ctx, req.SectionID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.AcademicPeriodID != req.AcademicPeriodID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section does not belong to the academic period")
	}

	offering := models.Offering{
		SectionID:        req.SectionID,
		TeacherID:        req.TeacherID,
		SubjectID:        req.SubjectID,
		AcademicPeriodID: req.AcademicPeriodID,
		Active:           true,
	}
	if err := s.offerings.Create(ctx, &offering); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject already offered in this section for the period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return &offering, nil
}

// GetOffering returns an offering by id.
func (s *ScheduleService) GetOffering(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.offerings.FindByID(ctx, nil, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

// ListOfferings returns offerings with pagination metadata.
func (s *ScheduleService) ListOfferings(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, *models.Pagination, error) {
	offerings, total, err := s.offerings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, pageMeta(filter.Page, filter.PageSize, total), nil
}

// SetOfferingActive toggles an offering. Deactivation also frees its slots;
// reactivation leaves slots inactive so each one is re-checked when restored.
func (s *ScheduleService) SetOfferingActive(ctx context.Context, id string, active bool) (*models.Offering, error) {
	var offering *models.Offering
	err := runInTx(ctx, s.tx, s.metrics, "toggle offering", func(tx *sqlx.Tx) error {
		current, err := s.offerings.FindByID(ctx, tx, id)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
			}
			return err
		}
		if current.Active == active {
			offering = current
			return nil
		}
		if err := s.offerings.SetActive(ctx, tx, id, active); err != nil {
			return err
		}
		if !active {
			if err := s.slots.DeactivateByOffering(ctx, tx, id); err != nil {
				return err
			}
		}
		current.Active = active
		offering = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("offering status changed", zap.String("offering_id", id), zap.Bool("active", active))
	return offering, nil
}

// ListSlots returns slots with pagination metadata.
func (s *ScheduleService) ListSlots(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, *models.Pagination, error) {
	slots, total, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, pageMeta(filter.Page, filter.PageSize, total), nil
}

// GetSlot returns a slot by id.
func (s *ScheduleService) GetSlot(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, nil, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	return slot, nil
}

// CreateSlot inserts a new slot after section and teacher conflict detection.
func (s *ScheduleService) CreateSlot(ctx context.Context, req CreateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	offering, err := s.activeOffering(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	slot, interval, err := buildSlot(offering, req)
	if err != nil {
		return nil, err
	}

	err = runInTx(ctx, s.tx, s.metrics, "create time slot", func(tx *sqlx.Tx) error {
		if err := s.lockSlotScopes(ctx, tx, slot); err != nil {
			return err
		}
		if err := s.ensureNoConflict(ctx, tx, slot, interval, ""); err != nil {
			return err
		}
		return s.slots.Create(ctx, tx, slot)
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// UpdateSlot re-validates a slot against its scopes excluding itself.
func (s *ScheduleService) UpdateSlot(ctx context.Context, id string, req UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	interval, err := academic.NewInterval(req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, validationError(err, "invalid time slot")
	}

	var updated *models.TimeSlot
	err = runInTx(ctx, s.tx, s.metrics, "update time slot", func(tx *sqlx.Tx) error {
		existing, err := s.slots.FindByID(ctx, tx, id)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
			}
			return err
		}
		slot := *existing
		slot.DayOfWeek = interval.Day.String()
		slot.StartTime = interval.Start.String()
		slot.EndTime = interval.End.String()
		slot.Classroom = req.Classroom
		slot.Notes = req.Notes
		if req.Active != nil {
			slot.Active = *req.Active
		}

		if slot.Active {
			if !existing.Active {
				offering, err := s.offerings.FindByID(ctx, tx, slot.OfferingID)
				if err != nil {
					return err
				}
				if !offering.Active {
					return appErrors.Clone(appErrors.ErrPreconditionFailed, "offering is inactive")
				}
			}
			if err := s.lockSlotScopes(ctx, tx, &slot); err != nil {
				return err
			}
			if err := s.ensureNoConflict(ctx, tx, &slot, interval, slot.ID); err != nil {
				return err
			}
		}
		if err := s.slots.Update(ctx, tx, &slot); err != nil {
			return err
		}
		updated = &slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSlot removes a slot.
func (s *ScheduleService) DeleteSlot(ctx context.Context, id string) error {
	if _, err := s.GetSlot(ctx, id); err != nil {
		return err
	}
	if err := s.slots.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time slot")
	}
	return nil
}

// BulkCreateSlots inserts many slots in one transaction. Each candidate is
// checked against storage and against the candidates accepted before it.
// Without PartialOnError a single conflict rejects the whole batch.
func (s *ScheduleService) BulkCreateSlots(ctx context.Context, req BulkCreateTimeSlotsRequest) (*BulkCreateTimeSlotsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk time slot payload")
	}

	type candidate struct {
		slot     *models.TimeSlot
		interval academic.Interval
	}
	offerings := make(map[string]*models.Offering)
	candidates := make([]candidate, 0, len(req.Items))
	var scopes []academic.Scope
	seenScopes := make(map[string]bool)
	for _, item := range req.Items {
		offering, ok := offerings[item.OfferingID]
		if !ok {
			loaded, err := s.activeOffering(ctx, item.OfferingID)
			if err != nil {
				return nil, err
			}
			offering = loaded
			offerings[item.OfferingID] = loaded
		}
		slot, interval, err := buildSlot(offering, item)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{slot: slot, interval: interval})
		for _, scope := range slotScopes(slot) {
			if !seenScopes[scope.LockKey()] {
				seenScopes[scope.LockKey()] = true
				scopes = append(scopes, scope)
			}
		}
	}

	result := &BulkCreateTimeSlotsResult{}
	err := runInTx(ctx, s.tx, s.metrics, "bulk create time slots", func(tx *sqlx.Tx) error {
		if err := s.slots.LockScopes(ctx, tx, scopes...); err != nil {
			return err
		}
		var accepted []models.TimeSlot
		var conflicts []models.ScheduleConflict
		var firstMessage string
		for i, c := range candidates {
			err := s.ensureNoConflict(ctx, tx, c.slot, c.interval, "")
			if err == nil {
				err = s.ensureNoBatchConflict(c.slot, c.interval, accepted)
			}
			if err != nil {
				var conflictErr *models.ScheduleConflictError
				if !errors.As(err, &conflictErr) {
					return err
				}
				conflict := conflictErr.Conflict
				conflict.Item = i + 1
				if len(conflicts) == 0 {
					firstMessage = fmt.Sprintf("item %d: %s", conflict.Item, conflictErr.Message)
				}
				conflicts = append(conflicts, conflict)
				continue
			}
			accepted = append(accepted, *c.slot)
		}

		if len(conflicts) > 0 && !req.PartialOnError {
			domainErr := &models.ScheduleConflictError{
				Scope:    conflicts[0].Scope,
				Message:  firstMessage,
				Conflict: conflicts[0],
				Errors:   conflicts,
			}
			message := fmt.Sprintf("schedule conflict: %s", firstMessage)
			if len(conflicts) > 1 {
				message = fmt.Sprintf("%s (%d time slots conflict)", message, len(conflicts))
			}
			return appErrors.Wrap(domainErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, message).WithDetails(domainErr)
		}
		for i := range accepted {
			if err := s.slots.Create(ctx, tx, &accepted[i]); err != nil {
				return err
			}
		}
		result.Created = accepted
		result.Conflicts = conflicts
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Created == nil {
		result.Created = []models.TimeSlot{}
	}
	return result, nil
}

// SectionTimetable returns a section's active week grouped by day.
func (s *ScheduleService) SectionTimetable(ctx context.Context, sectionID, periodID string) ([]models.TimetableDay, error) {
	return s.timetable(ctx, academic.ScopeSection, sectionID, periodID)
}

// TeacherTimetable returns a teacher's active week across sections.
func (s *ScheduleService) TeacherTimetable(ctx context.Context, teacherID, periodID string) ([]models.TimetableDay, error) {
	return s.timetable(ctx, academic.ScopeTeacher, teacherID, periodID)
}

// TodaySlots returns the section's slots for the current weekday and marks
// the one in progress. Sundays are empty.
func (s *ScheduleService) TodaySlots(ctx context.Context, sectionID, periodID string) (*models.TimetableDay, error) {
	now := s.now()
	day, ok := academic.WeekdayOf(now)
	if !ok {
		return &models.TimetableDay{DayOfWeek: "sunday", Slots: []models.TimeSlot{}}, nil
	}
	week, err := s.SectionTimetable(ctx, sectionID, periodID)
	if err != nil {
		return nil, err
	}
	today := week[day.Index()]
	clock := academic.Clock(now.Hour()*3600 + now.Minute()*60 + now.Second())
	for _, slot := range today.Slots {
		interval, err := academic.NewInterval(slot.DayOfWeek, slot.StartTime, slot.EndTime)
		if err != nil {
			continue
		}
		if interval.Contains(clock) {
			today.CurrentSlotID = slot.ID
			break
		}
	}
	return &today, nil
}

func (s *ScheduleService) timetable(ctx context.Context, kind academic.ScopeKind, id, periodID string) ([]models.TimetableDay, error) {
	periodID, err := s.resolvePeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListActiveByScope(ctx, academic.Scope{Kind: kind, ID: id, AcademicPeriodID: periodID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return groupByDay(slots), nil
}

func (s *ScheduleService) resolvePeriod(ctx context.Context, periodID string) (string, error) {
	if periodID != "" {
		return periodID, nil
	}
	if s.periods == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "academic_period_id is required")
	}
	period, err := s.periods.FindCurrentPeriod(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "no current academic period")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	return period.ID, nil
}

func (s *ScheduleService) activeOffering(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.GetOffering(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offering.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "offering is inactive")
	}
	return offering, nil
}

func (s *ScheduleService) lockSlotScopes(ctx context.Context, tx sqlx.ExtContext, slot *models.TimeSlot) error {
	return s.slots.LockScopes(ctx, tx, slotScopes(slot)...)
}

// ensureNoConflict checks the section scope first, then the teacher scope.
// Callers must hold both scope locks.
func (s *ScheduleService) ensureNoConflict(ctx context.Context, tx sqlx.ExtContext, slot *models.TimeSlot, interval academic.Interval, excludeID string) error {
	for _, scope := range slotScopes(slot) {
		existing, err := s.slots.ListActiveInScope(ctx, tx, scope, interval.Day)
		if err != nil {
			return err
		}
		booked, err := toAcademicSlots(existing)
		if err != nil {
			return err
		}
		hit, found := academic.FindConflict(interval, booked, excludeID)
		if !found {
			continue
		}
		for _, item := range existing {
			if item.ID == hit.ID {
				return s.wrapConflict(scope.Kind, item)
			}
		}
	}
	return nil
}

func (s *ScheduleService) ensureNoBatchConflict(slot *models.TimeSlot, interval academic.Interval, accepted []models.TimeSlot) error {
	for _, kind := range []academic.ScopeKind{academic.ScopeSection, academic.ScopeTeacher} {
		for _, other := range accepted {
			if other.AcademicPeriodID != slot.AcademicPeriodID || !sameScope(kind, other, *slot) {
				continue
			}
			otherInterval, err := academic.NewInterval(other.DayOfWeek, other.StartTime, other.EndTime)
			if err != nil {
				return err
			}
			if interval.Overlaps(otherInterval) {
				return s.wrapConflict(kind, other)
			}
		}
	}
	return nil
}

func (s *ScheduleService) wrapConflict(kind academic.ScopeKind, existing models.TimeSlot) error {
	s.metrics.RecordScheduleConflict(string(kind))
	message := "section already has a class at this time"
	if kind == academic.ScopeTeacher {
		message = "teacher is already booked at this time"
	}
	conflict := models.ScheduleConflict{
		TimeSlotID: existing.ID,
		OfferingID: existing.OfferingID,
		SectionID:  existing.SectionID,
		TeacherID:  existing.TeacherID,
		DayOfWeek:  existing.DayOfWeek,
		StartTime:  existing.StartTime,
		EndTime:    existing.EndTime,
		Scope:      string(kind),
	}
	domainErr := &models.ScheduleConflictError{Scope: string(kind), Message: message, Conflict: conflict}
	return appErrors.Wrap(domainErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, fmt.Sprintf("schedule conflict: %s", message)).WithDetails(domainErr)
}

func buildSlot(offering *models.Offering, req CreateTimeSlotRequest) (*models.TimeSlot, academic.Interval, error) {
	interval, err := academic.NewInterval(req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, academic.Interval{}, validationError(err, "invalid time slot")
	}
	slot := &models.TimeSlot{
		OfferingID:       offering.ID,
		SectionID:        offering.SectionID,
		TeacherID:        offering.TeacherID,
		SubjectID:        offering.SubjectID,
		AcademicPeriodID: offering.AcademicPeriodID,
		DayOfWeek:        interval.Day.String(),
		StartTime:        interval.Start.String(),
		EndTime:          interval.End.String(),
		Classroom:        req.Classroom,
		Notes:            req.Notes,
		Active:           true,
	}
	return slot, interval, nil
}

func slotScopes(slot *models.TimeSlot) []academic.Scope {
	return []academic.Scope{
		academic.SectionScope(slot.SectionID, slot.AcademicPeriodID),
		academic.TeacherScope(slot.TeacherID, slot.AcademicPeriodID),
	}
}

func sameScope(kind academic.ScopeKind, a, b models.TimeSlot) bool {
	if kind == academic.ScopeSection {
		return a.SectionID == b.SectionID
	}
	return a.TeacherID == b.TeacherID
}

func toAcademicSlots(slots []models.TimeSlot) ([]academic.Slot, error) {
	out := make([]academic.Slot, 0, len(slots))
	for _, slot := range slots {
		interval, err := academic.NewInterval(slot.DayOfWeek, slot.StartTime, slot.EndTime)
		if err != nil {
			return nil, fmt.Errorf("stored slot %s: %w", slot.ID, err)
		}
		out = append(out, academic.Slot{ID: slot.ID, Interval: interval, Active: slot.Active})
	}
	return out, nil
}

// groupByDay lays slots out Monday to Saturday. Storage already orders them by start.
func groupByDay(slots []models.TimeSlot) []models.TimetableDay {
	days := make([]models.TimetableDay, len(academic.Weekdays))
	for i, day := range academic.Weekdays {
		days[i] = models.TimetableDay{DayOfWeek: day.String(), Slots: []models.TimeSlot{}}
	}
	for _, slot := range slots {
		day, err := academic.ParseWeekday(slot.DayOfWeek)
		if err != nil {
			continue
		}
		idx := day.Index()
		days[idx].Slots = append(days[idx].Slots, slot)
	}
	return days
}
