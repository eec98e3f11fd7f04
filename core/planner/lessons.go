package planner

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
)

const copySuffix = " (Copy)"

func (in *LessonInput) clean() {
	in.Title = core.CleanString(in.Title)
	in.Subject = core.CleanString(in.Subject)
	in.Date = core.CleanString(in.Date)
}

func (s *Store) CreateLesson(ctx context.Context, in LessonInput) (Lesson, error) {
	in.clean()
	if err := s.validate.Struct(in); err != nil {
		return Lesson{}, err
	}
	return s.addLesson(ctx, Lesson{
		Title:      in.Title,
		Subject:    in.Subject,
		Date:       in.Date,
		Duration:   in.Duration,
		Objectives: in.Objectives,
		Materials:  in.Materials,
		Activities: in.Activities,
	})
}

func (s *Store) addLesson(ctx context.Context, lesson Lesson) (Lesson, error) {
	tstamp := now()
	lesson.ID = ""
	lesson.CreatedAt = tstamp
	lesson.UpdatedAt = tstamp
	id, err := s.add(ctx, lessonsColl, lesson)
	if err != nil {
		return Lesson{}, err
	}
	lesson.ID = id
	return lesson, nil
}

func (s *Store) UpdateLesson(ctx context.Context, id string, in LessonInput) (Lesson, error) {
	in.clean()
	if err := s.validate.Struct(in); err != nil {
		return Lesson{}, err
	}

	fields, err := fieldsOf(in)
	if err != nil {
		return Lesson{}, err
	}
	fields["updatedAt"] = now()
	if err = s.update(ctx, lessonsColl, id, fields); err != nil {
		return Lesson{}, err
	}

	lesson, err := s.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if lesson == nil {
		return Lesson{}, ErrNotFound
	}
	return *lesson, nil
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	return s.delete(ctx, lessonsColl, id)
}

// GetLesson returns nil when the lesson does not exist.
func (s *Store) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	var lesson Lesson
	found, err := s.get(ctx, lessonsColl, id, &lesson)
	if err != nil || !found {
		return nil, err
	}
	lesson.ID = id
	return &lesson, nil
}

// ListLessons returns all lessons, most recent date first.
func (s *Store) ListLessons(ctx context.Context) ([]Lesson, error) {
	return s.queryLessons(ctx, core.DocQuery{OrderBy: []core.DBOrdering{desc("date")}})
}

func (s *Store) LessonsByDate(ctx context.Context, date string) ([]Lesson, error) {
	return s.queryLessons(ctx, core.DocQuery{Where: []core.DocFilter{{Field: "date", Value: date}}})
}

func (s *Store) queryLessons(ctx context.Context, q core.DocQuery) ([]Lesson, error) {
	lessons := make([]Lesson, 0)
	err := s.query(ctx, lessonsColl, q, func(doc core.Doc) error {
		var lesson Lesson
		if err := doc.Decode(&lesson); err != nil {
			return err
		}
		lesson.ID = doc.ID
		lessons = append(lessons, lesson)
		return nil
	})
	return lessons, err
}

// CopyLesson duplicates a lesson with a " (Copy)" title and no date; the copy must be dated before it is scheduled.
func (s *Store) CopyLesson(ctx context.Context, id string) (Lesson, error) {
	lesson, err := s.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if lesson == nil {
		return Lesson{}, ErrNotFound
	}
	return s.addLesson(ctx, Lesson{
		Title:      lesson.Title + copySuffix,
		Subject:    lesson.Subject,
		Duration:   lesson.Duration,
		Objectives: lesson.Objectives,
		Materials:  lesson.Materials,
		Activities: lesson.Activities,
	})
}

func slotID(day, timeSlot int) string {
	return strconv.Itoa(day) + "-" + strconv.Itoa(timeSlot)
}

// SaveScheduleSlot puts a lesson in a cell of the weekly grid. An empty lessonID clears the cell.
func (s *Store) SaveScheduleSlot(ctx context.Context, day, timeSlot int, lessonID string) error {
	if day < 0 || day >= ScheduleDays || timeSlot < 0 || timeSlot >= ScheduleSlots {
		return core.NewValidationError(errors.Errorf(
			"slot %d-%d is outside the %dx%d schedule", day, timeSlot, ScheduleDays, ScheduleSlots))
	}

	id := slotID(day, timeSlot)
	if lessonID = core.CleanString(lessonID); lessonID == "" {
		return s.delete(ctx, scheduleColl, id)
	}
	return s.set(ctx, scheduleColl, id, ScheduleSlot{
		Day:       day,
		TimeSlot:  timeSlot,
		LessonID:  lessonID,
		UpdatedAt: now(),
	})
}

// GetSchedule returns the weekly grid. Cells whose lesson no longer exists are empty.
func (s *Store) GetSchedule(ctx context.Context) (Schedule, error) {
	var grid Schedule

	slots := make([]ScheduleSlot, 0)
	err := s.query(ctx, scheduleColl, core.DocQuery{}, func(doc core.Doc) error {
		var slot ScheduleSlot
		if err := doc.Decode(&slot); err != nil {
			return err
		}
		slots = append(slots, slot)
		return nil
	})
	if err != nil || len(slots) == 0 {
		return grid, err
	}

	lessons, err := s.queryLessons(ctx, core.DocQuery{})
	if err != nil {
		return grid, err
	}
	byID := make(map[string]*Lesson, len(lessons))
	for i := range lessons {
		byID[lessons[i].ID] = &lessons[i]
	}

	for _, slot := range slots {
		if slot.Day < 0 || slot.Day >= ScheduleDays || slot.TimeSlot < 0 || slot.TimeSlot >= ScheduleSlots {
			continue
		}
		if lesson, ok := byID[slot.LessonID]; ok {
			grid[slot.TimeSlot][slot.Day] = lesson
		}
	}
	return grid, nil
}
