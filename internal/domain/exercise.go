// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a catalog entry. The catalog is owned by another service; this
// one only reads it to label calendar entries.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID  primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Name        string             `bson:"name" json:"name"`
	MuscleGroup string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs", "Back"
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Category groups exercises in the catalog.
type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}
