// Package influxexec provides an influxqb.Executor backed by the InfluxDB
// 1.x HTTP API.
package influxexec

import (
	"context"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/influxqb/influxqb"
	"github.com/influxqb/influxqb/errors"
	"github.com/palantir/stacktrace"
	"go.uber.org/zap"
)

// Config configures the connection to an InfluxDB 1.x instance
type Config struct {
	// Addr is the http(s) address of the InfluxDB instance
	Addr string
	// Username is an optional basic-auth username
	Username string
	// Password is an optional basic-auth password
	Password string
	// Database is the target database for every query
	Database string
	// Precision is the timestamp precision of returned points (default ns)
	Precision string
	// Timeout bounds each HTTP request (default 30s)
	Timeout time.Duration
}

// Option is a functional option for configuring an Executor
type Option func(e *Executor)

// WithLogger replaces the executor's logger (a no-op logger by default)
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// Executor runs queries against an InfluxDB 1.x instance over HTTP
type Executor struct {
	client    client.Client
	database  string
	precision string
	logger    *zap.Logger
}

var _ influxqb.Executor = (*Executor)(nil)

// New creates a new Executor from the given config
func New(cfg Config, opts ...Option) (*Executor, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.Config, "influx address not defined")
	}
	if cfg.Database == "" {
		return nil, errors.New(errors.Config, "influx database not defined")
	}
	if cfg.Precision == "" {
		cfg.Precision = "ns"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to create influx client")
	}
	e := &Executor{
		client:    c,
		database:  cfg.Database,
		precision: cfg.Precision,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunQuery runs the given query string against the configured database and
// returns the raw response. The response is not interpreted beyond checking
// for a store-side error.
func (e *Executor) RunQuery(ctx context.Context, query string) (influxqb.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := e.client.Query(client.NewQuery(query, e.database, e.precision))
	if err != nil {
		return nil, stacktrace.Propagate(err, "query failed: %s", query)
	}
	if err := resp.Error(); err != nil {
		return nil, stacktrace.Propagate(err, "query rejected: %s", query)
	}
	e.logger.Debug("query executed",
		zap.String("query", query),
		zap.String("database", e.database),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// Close releases the underlying http client resources
func (e *Executor) Close() error {
	return e.client.Close()
}
