package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// querier is the subset of pgx.Tx the repositories need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loggingQuerier logs statements and their positional arguments before
// passing them on.
type loggingQuerier struct {
	q      querier
	logger *zap.Logger
}

func (l loggingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if ce := l.logger.Check(zap.DebugLevel, "exec"); ce != nil {
		ce.Write(zap.String("sql", sql), zap.String("args", argsString(args...)))
	}
	return l.q.Exec(ctx, sql, args...)
}

func (l loggingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if ce := l.logger.Check(zap.DebugLevel, "query"); ce != nil {
		ce.Write(zap.String("sql", sql), zap.String("args", argsString(args...)))
	}
	return l.q.Query(ctx, sql, args...)
}

// argsString renders positional arguments as "1:x 2:y", dereferencing
// pointers so nullable columns read as values or <nil>.
func argsString(args ...any) string {
	var out string
	for i, a := range args {
		var v string
		switch x := a.(type) {
		case string:
			v = fmt.Sprintf("%q", x)
		case *string:
			if x == nil {
				v = "<nil>"
			} else {
				v = fmt.Sprintf("%q", *x)
			}
		case *float64:
			if x == nil {
				v = "<nil>"
			} else {
				v = fmt.Sprintf("%v", *x)
			}
		case *int:
			if x == nil {
				v = "<nil>"
			} else {
				v = fmt.Sprintf("%d", *x)
			}
		default:
			v = fmt.Sprintf("%v", x)
		}
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%d:%s", i+1, v)
	}
	return out
}
