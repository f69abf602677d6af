package graph

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ppiankov/geoagent/internal/model"
)

// OpenNeo4j connects to the configured Neo4j instance and verifies connectivity
func OpenNeo4j(ctx context.Context, cfg model.GraphConfig) (*Neo4jStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("neo4j uri is empty")
	}
	password := cfg.Password
	if password == "" && cfg.PasswordEnv != "" {
		password = os.Getenv(cfg.PasswordEnv)
	}

	drv, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := drv.VerifyConnectivity(ctx); err != nil {
		_ = drv.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return NewNeo4jStore(&driverAdapter{driver: drv}, cfg.Database)
}

type driverAdapter struct {
	driver neo4j.DriverWithContext
}

func (d *driverAdapter) NewSession(ctx context.Context, cfg SessionConfig) (neo4jSession, error) {
	mode := neo4j.AccessModeWrite
	if cfg.AccessMode == AccessModeRead {
		mode = neo4j.AccessModeRead
	}
	sess := d.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: cfg.DatabaseName})
	return &sessionAdapter{session: sess}, nil
}

func (d *driverAdapter) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

type sessionAdapter struct {
	session neo4j.SessionWithContext
}

func (s *sessionAdapter) Run(ctx context.Context, query string, params map[string]any) (neo4jResult, error) {
	res, err := s.session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return &resultAdapter{result: res}, nil
}

func (s *sessionAdapter) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type resultAdapter struct {
	result neo4j.ResultWithContext
}

func (r *resultAdapter) Next(ctx context.Context) bool { return r.result.Next(ctx) }

func (r *resultAdapter) Record() neo4jRecord {
	rec := r.result.Record()
	if rec == nil {
		return nil
	}
	return rec
}

func (r *resultAdapter) Err() error { return r.result.Err() }
