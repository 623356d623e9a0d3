// db/db.go
package db

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/config"
	logger "github.com/campusmesh/campus/api/logging"
)

// Neo4jDriver is the shared driver for the campus graph, which holds the
// institution, user, role and academic structure nodes the DAOs operate on.
var Neo4jDriver neo4j.Driver

// InitNeo4j connects to the graph named by the neo4j.* config keys and
// verifies connectivity before anything starts serving.
func InitNeo4j() error {
	var err error
	uri := config.GetString("neo4j.uri")
	logger.Info("Connecting to Neo4j", zap.String("uri", uri))
	Neo4jDriver, err = neo4j.NewDriver(
		uri,
		neo4j.BasicAuth(
			config.GetString("neo4j.username"),
			config.GetString("neo4j.password"),
			"",
		),
		func(c *neo4j.Config) {
			c.MaxConnectionLifetime = config.GetDuration("neo4j.maxConnectionLifetime")
			c.MaxConnectionPoolSize = config.GetInt("neo4j.maxPoolSize")
			c.Log = neo4j.ConsoleLogger(neo4j.ERROR)
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	if err := Neo4jDriver.VerifyConnectivity(); err != nil {
		return fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	logger.Info("Successfully connected to Neo4j")
	return nil
}

func CloseNeo4j() {
	if Neo4jDriver == nil {
		return
	}
	if err := Neo4jDriver.Close(); err != nil {
		logger.Error("Error closing Neo4j connection", zap.Error(err))
		return
	}
	logger.Info("Neo4j connection closed")
}
