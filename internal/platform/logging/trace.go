package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

type traceContext struct {
	traceID string
	spanID  string
	sampled bool
}

func parseTraceparent(header string) (traceContext, bool) {
	m := traceparentRe.FindStringSubmatch(header)
	if len(m) != 5 {
		return traceContext{}, false
	}
	return traceContext{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

func (tc traceContext) resource(projectID string) string {
	return fmt.Sprintf("projects/%s/traces/%s", projectID, tc.traceID)
}

// requestLogger derives the per-request logger. Cloud Trace fields are only
// attached when both a project and a valid traceparent are present.
func requestLogger(base *zap.Logger, header, projectID, requestID string) (*zap.Logger, string) {
	if base == nil {
		base = zap.NewNop()
	}
	var (
		fields  []zap.Field
		traceID string
	)
	if tc, ok := parseTraceparent(header); ok && projectID != "" {
		traceID = tc.resource(projectID)
		fields = append(fields,
			zap.String("logging.googleapis.com/trace", traceID),
			zap.String("logging.googleapis.com/spanId", tc.spanID),
			zap.Bool("logging.googleapis.com/trace_sampled", tc.sampled),
		)
	}
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
		if traceID == "" {
			traceID = requestID
		}
	}
	if len(fields) == 0 {
		return base, traceID
	}
	return base.With(fields...), traceID
}
