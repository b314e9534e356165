// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleMode controls whether a plan is bounded by dates.
type ScheduleMode string

const (
	ModeOngoing ScheduleMode = "ongoing" // No bounds, active from creation date forward
	ModeDated   ScheduleMode = "dated"   // Requires StartDate and EndDate
)

// PlateLoad is one entry of a weight-plate breakdown (e.g. 2 x 20kg).
type PlateLoad struct {
	Weight float64 `bson:"weight" json:"weight"`
	Count  int     `bson:"count" json:"count"`
}

// ExerciseTemplate is one exercise within a day of the weekly template.
type ExerciseTemplate struct {
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	CategoryID primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Sets       int                `bson:"sets" json:"sets"`
	Reps       int                `bson:"reps" json:"reps"`
	Weight     float64            `bson:"weight" json:"weight"`
	Plates     []PlateLoad        `bson:"plates,omitempty" json:"plates,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Order      int                `bson:"order" json:"order"` // Unique within the day
}

// DayTemplate holds the exercises planned for one weekday.
type DayTemplate struct {
	Exercises []ExerciseTemplate `bson:"exercises" json:"exercises"`
}

// WeeklyTemplate has one slot per weekday, indexed by time.Weekday (0 = Sunday).
type WeeklyTemplate [7]DayTemplate

// Day returns the day-template for the given weekday.
func (w *WeeklyTemplate) Day(wd time.Weekday) DayTemplate {
	return w[int(wd)%7]
}

// WorkoutPlan is a user's recurring weekly workout template.
type WorkoutPlan struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID       primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Level         string             `bson:"level,omitempty" json:"level,omitempty"` // e.g. "beginner", "intermediate"
	DurationWeeks *int               `bson:"durationWeeks,omitempty" json:"durationWeeks,omitempty"`
	Mode          ScheduleMode       `bson:"mode" json:"mode"`
	StartDate     *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate       *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Template      WeeklyTemplate     `bson:"weeklyTemplate" json:"weeklyTemplate"`
	IsActive      bool               `bson:"isActive" json:"isActive"` // At most one per owner
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsDated reports whether the plan is bounded by a start and end date.
func (p *WorkoutPlan) IsDated() bool {
	return p.Mode == ModeDated
}

// EffectiveStart is the first date the plan may produce instances for.
// Ongoing plans start on their creation date.
func (p *WorkoutPlan) EffectiveStart() time.Time {
	if p.IsDated() && p.StartDate != nil {
		return DateOf(*p.StartDate)
	}
	return DateOf(p.CreatedAt)
}

// EffectiveEnd is the last valid date, or nil when the plan is unbounded.
func (p *WorkoutPlan) EffectiveEnd() *time.Time {
	if p.IsDated() && p.EndDate != nil {
		end := DateOf(*p.EndDate)
		return &end
	}
	return nil
}

// Covers reports whether date d falls inside the plan's valid window.
func (p *WorkoutPlan) Covers(d time.Time) bool {
	d = DateOf(d)
	if d.Before(p.EffectiveStart()) {
		return false
	}
	if end := p.EffectiveEnd(); end != nil && d.After(*end) {
		return false
	}
	return true
}

// Clip intersects [from, to] with the plan's valid window. ok is false when
// the intersection is empty.
func (p *WorkoutPlan) Clip(from, to time.Time) (start, end time.Time, ok bool) {
	start, end = DateOf(from), DateOf(to)
	if p.IsDated() {
		start = MaxDate(start, p.EffectiveStart())
		if e := p.EffectiveEnd(); e != nil {
			end = MinDate(end, *e)
		}
	}
	return start, end, !start.After(end)
}
