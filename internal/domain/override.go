package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HiddenOccurrence suppresses a single future occurrence of a template
// exercise before it has been materialized.
type HiddenOccurrence struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID    primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	PlanID     primitive.ObjectID `bson:"planId" json:"planId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Date       time.Time          `bson:"date" json:"date"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
