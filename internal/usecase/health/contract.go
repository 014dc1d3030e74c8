package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GeneratorChecker checks answer provider availability.
type GeneratorChecker interface {
	HealthCheck(ctx context.Context) error
}
