package testutil

import (
	"context"

	"github.com/influxqb/influxqb"
)

// Executor is an in-memory influxqb.Executor that records every query it
// receives and returns a canned result or error
type Executor struct {
	Queries []string
	Result  influxqb.Result
	Err     error
}

// NewExecutor creates a recording executor that returns the given result
func NewExecutor(result influxqb.Result) *Executor {
	return &Executor{Result: result}
}

func (e *Executor) RunQuery(ctx context.Context, query string) (influxqb.Result, error) {
	e.Queries = append(e.Queries, query)
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Result, nil
}
