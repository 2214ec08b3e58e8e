package influxqb_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/influxqb/influxqb"
	"github.com/influxqb/influxqb/errors"
	"github.com/influxqb/influxqb/testutil"
	"github.com/stretchr/testify/assert"
)

func TestExecute(t *testing.T) {
	ctx := context.Background()
	t.Run("passes the built query to the executor", func(t *testing.T) {
		exec := testutil.NewExecutor("rows")
		result, query, err := influxqb.NewQueryBuilder("a").
			Tag("host", "srv1").
			WithExecutor(exec).
			Execute(ctx)
		assert.Nil(t, err)
		assert.Equal(t, "rows", result)
		assert.Equal(t, `SELECT * FROM a WHERE "host"='srv1'`, query)
		assert.Equal(t, []string{query}, exec.Queries)
	})
	t.Run("executor errors pass through unchanged", func(t *testing.T) {
		exec := testutil.NewExecutor(nil)
		exec.Err = fmt.Errorf("store unavailable")
		result, query, err := influxqb.NewQueryBuilder("a").
			WithExecutor(exec).
			Execute(ctx)
		assert.Equal(t, exec.Err, err)
		assert.Nil(t, result)
		assert.Equal(t, "SELECT * FROM a", query)
	})
	t.Run("executor not defined", func(t *testing.T) {
		_, _, err := influxqb.NewQueryBuilder("a").Execute(ctx)
		assert.NotNil(t, err)
		assert.Equal(t, errors.Config, errors.Extract(err).Code)
	})
	t.Run("build failure skips the executor", func(t *testing.T) {
		exec := testutil.NewExecutor(nil)
		_, _, err := influxqb.NewQueryBuilder().WithExecutor(exec).Execute(ctx)
		assert.NotNil(t, err)
		assert.Equal(t, errors.Config, errors.Extract(err).Code)
		assert.Empty(t, exec.Queries)
	})
	t.Run("each execute rebuilds from current state", func(t *testing.T) {
		exec := testutil.NewExecutor(nil)
		builder := influxqb.NewQueryBuilder("a").WithExecutor(exec)
		_, _, err := builder.Execute(ctx)
		assert.Nil(t, err)
		_, _, err = builder.Limit(1).Execute(ctx)
		assert.Nil(t, err)
		assert.Equal(t, []string{"SELECT * FROM a", "SELECT * FROM a LIMIT 1"}, exec.Queries)
	})
}
