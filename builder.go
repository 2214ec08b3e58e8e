package influxqb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/influxqb/influxqb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Result is the raw, uninterpreted result returned by an Executor.
type Result any

// Executor runs a finished query string against a time-series store.
// Failures from RunQuery surface to Execute's caller unchanged.
type Executor interface {
	RunQuery(ctx context.Context, query string) (Result, error)
}

// QueryBuilder assembles an InfluxQL select statement via chainable methods.
// Every Build call recomputes the query from current state, so a builder may
// be mutated and rebuilt any number of times. It is not safe for concurrent
// use; use one builder per logical query.
type QueryBuilder struct {
	series   []string
	fields   []string
	tags     []string
	where    string
	before   string
	after    string
	limit    int
	strict   bool
	executor Executor
	logger   *zap.Logger
	err      error
}

// NewQueryBuilder creates a new QueryBuilder targeting the given series, if
// any. A builder with no series can still be configured but fails at Build.
func NewQueryBuilder(series ...string) *QueryBuilder {
	return &QueryBuilder{
		series: series,
		fields: []string{"*"},
		logger: zap.NewNop(),
	}
}

// Series replaces the target series list
func (q *QueryBuilder) Series(series ...string) *QueryBuilder {
	q.series = series
	return q
}

// Fields replaces the projected fields. Calling with no arguments restores
// the default projection (*).
func (q *QueryBuilder) Fields(fields ...string) *QueryBuilder {
	if len(fields) == 0 {
		q.fields = []string{"*"}
		return q
	}
	q.fields = fields
	return q
}

// Tag appends one equality clause for the given tag key. Multiple values are
// OR-ed together inside a single parenthesized group. Calling Tag twice for
// the same key appends a second clause AND-ed with the first; clauses are
// never merged or deduplicated. Keys and values are interpolated without
// escaping unless WithStrictQuoting is set.
func (q *QueryBuilder) Tag(key string, values ...string) *QueryBuilder {
	if len(values) == 0 {
		return q
	}
	if q.strict {
		if err := checkQuoting(key, values); err != nil && q.err == nil {
			q.err = err
		}
	}
	parts := lo.Map(values, func(value string, _ int) string {
		return fmt.Sprintf(`"%s"='%s'`, key, value)
	})
	clause := parts[0]
	if len(parts) > 1 {
		clause = "(" + strings.Join(parts, " OR ") + ")"
	}
	q.tags = append(q.tags, clause)
	return q
}

// Tags applies Tag once per entry in ascending key order. A value may be a
// single string or a list of strings; lists render as the same parenthesized
// OR group Tag produces.
func (q *QueryBuilder) Tags(tags map[string]any) *QueryBuilder {
	keys := lo.Keys(tags)
	sort.Strings(keys)
	for _, key := range keys {
		switch value := tags[key].(type) {
		case string:
			q.Tag(key, value)
		case []string:
			q.Tag(key, value...)
		default:
			q.Tag(key, cast.ToStringSlice(tags[key])...)
		}
	}
	return q
}

// Where replaces the raw where expression. The expression is emitted
// verbatim without validation; an empty string clears it.
func (q *QueryBuilder) Where(expr string) *QueryBuilder {
	q.where = expr
	return q
}

// Limit replaces the row limit. Values <= 0 suppress the LIMIT clause.
func (q *QueryBuilder) Limit(limit int) *QueryBuilder {
	q.limit = limit
	return q
}

// WithExecutor injects the executor used by Execute
func (q *QueryBuilder) WithExecutor(executor Executor) *QueryBuilder {
	q.executor = executor
	return q
}

// WithLogger replaces the builder's logger (a no-op logger by default)
func (q *QueryBuilder) WithLogger(logger *zap.Logger) *QueryBuilder {
	q.logger = logger
	return q
}

// WithStrictQuoting rejects tag keys and values that embed their own
// delimiter quote character. The emitted grammar has no escape sequence, so
// such values always yield a malformed query; the check is opt-in because
// the default behavior passes values through untouched.
func (q *QueryBuilder) WithStrictQuoting() *QueryBuilder {
	q.strict = true
	return q
}

// Before constrains results to time < value, replacing any previous upper
// bound. See resolveTimeValue for the accepted value kinds; an unsupported
// kind returns an error and leaves the current bound untouched.
func (q *QueryBuilder) Before(value any) error {
	return q.setTimeClause(&q.before, "<", value)
}

// BeforeOrEqual constrains results to time <= value
func (q *QueryBuilder) BeforeOrEqual(value any) error {
	return q.setTimeClause(&q.before, "<=", value)
}

// After constrains results to time > value, replacing any previous lower
// bound
func (q *QueryBuilder) After(value any) error {
	return q.setTimeClause(&q.after, ">", value)
}

// AfterOrEqual constrains results to time >= value
func (q *QueryBuilder) AfterOrEqual(value any) error {
	return q.setTimeClause(&q.after, ">=", value)
}

func (q *QueryBuilder) setTimeClause(target *string, op string, value any) error {
	resolved, err := resolveTimeValue(value, q.logger)
	if err != nil {
		return err
	}
	*target = resolved.render(op)
	return nil
}

// Build assembles the query string from the builder's current state. Tag
// clauses come first in the WHERE list, then the raw where expression, then
// the upper and lower time bounds, all joined with AND.
func (q *QueryBuilder) Build() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	if len(q.series) == 0 {
		return "", errors.New(errors.Config, "series not defined")
	}
	fields := q.fields
	if len(fields) == 0 {
		fields = []string{"*"}
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(fields, ","))
	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(q.series, ","))
	conds := lo.Compact(append(append([]string{}, q.tags...), q.where, q.before, q.after))
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if q.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.limit))
	}
	return sb.String(), nil
}

// Execute builds the query, hands it to the injected executor, and returns
// the executor's result alongside the query string that produced it.
// Executor failures are not caught, wrapped, or retried.
func (q *QueryBuilder) Execute(ctx context.Context) (Result, string, error) {
	query, err := q.Build()
	if err != nil {
		return nil, "", err
	}
	if q.executor == nil {
		return nil, "", errors.New(errors.Config, "executor not defined")
	}
	result, err := q.executor.RunQuery(ctx, query)
	if err != nil {
		return nil, query, err
	}
	return result, query, nil
}

func checkQuoting(key string, values []string) error {
	if strings.Contains(key, `"`) {
		return errors.New(errors.Validation, "tag key %s contains a double quote", key)
	}
	for _, value := range values {
		if strings.Contains(value, "'") {
			return errors.New(errors.Validation, "tag value %s contains a single quote", value)
		}
	}
	return nil
}
