package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduledExerciseInstance is a concrete exercise on a calendar date, either
// materialized from a plan template or added manually.
type ScheduledExerciseInstance struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Date        time.Time          `bson:"date" json:"date"` // UTC midnight
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	CategoryID  primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Sets        int                `bson:"sets" json:"sets"`
	Reps        int                `bson:"reps" json:"reps"`
	Weight      float64            `bson:"weight" json:"weight"`
	Plates      []PlateLoad        `bson:"plates,omitempty" json:"plates,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Order       int                `bson:"order" json:"order"`
	Completed   bool               `bson:"completed" json:"completed"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	// Provenance. SourcePlanID is nil for manually added instances.
	SourcePlanID      *primitive.ObjectID `bson:"sourcePlanId,omitempty" json:"sourcePlanId,omitempty"`
	IsManual          bool                `bson:"isManual" json:"isManual"`
	GenerationBatchID string              `bson:"generationBatchId,omitempty" json:"generationBatchId,omitempty"`
	GeneratedAt       *time.Time          `bson:"generatedAt,omitempty" json:"generatedAt,omitempty"`

	// Overlay flags
	IsHidden       bool `bson:"isHidden" json:"isHidden"`
	ModifiedByUser bool `bson:"modifiedByUser" json:"modifiedByUser"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FromPlan reports whether the instance was generated from the given plan.
func (i *ScheduledExerciseInstance) FromPlan(planID primitive.ObjectID) bool {
	return i.SourcePlanID != nil && *i.SourcePlanID == planID
}
