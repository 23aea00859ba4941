package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type querySpanKey struct{}

// sqlAttrLimit bounds the db.statement attribute length.
const sqlAttrLimit = 300

// PGXTracer implements pgx.QueryTracer, opening a span per statement so
// bill and user queries show up under their request traces.
type PGXTracer struct{}

func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, span := otel.Tracer("db.pgx").Start(ctx, "pgx.query")
	stmt := strings.TrimSpace(data.SQL)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", clipSQL(stmt)),
	)
	if fields := strings.Fields(stmt); len(fields) > 0 {
		span.SetAttributes(attribute.String("db.operation", fields[0]))
	}
	return context.WithValue(ctx, querySpanKey{}, span)
}

func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(querySpanKey{}).(trace.Span)
	if !ok {
		return
	}
	if data.Err != nil {
		span.RecordError(data.Err)
	}
	span.End()
}

func clipSQL(stmt string) string {
	if len(stmt) > sqlAttrLimit {
		return stmt[:sqlAttrLimit] + "..."
	}
	return stmt
}
