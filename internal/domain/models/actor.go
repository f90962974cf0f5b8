// internal/domain/models/actor.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Actor is the authenticated user performing an operation. It is trusted
// as already validated by the session layer.
type Actor struct {
	ID   primitive.ObjectID
	Name string
	Role string
}
