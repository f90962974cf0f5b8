// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/congregationhub/internal/app/store/memstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// Exactly one of MongoDatabase and Memory is set.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Memory *memstore.DB
}
