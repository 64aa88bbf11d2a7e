package submit

import (
	"context"

	"tc.com/oracle-node/pkg/logging"
	"tc.com/oracle-node/pkg/oracle"
)

// LogSink logs consensus results instead of submitting them. Used for
// dry-run mode.
type LogSink struct {
	logger *logging.Logger
}

// Ensure LogSink implements the Sink interface.
var _ oracle.Sink = (*LogSink)(nil)

// NewLogSink creates a log sink.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name returns the sink identifier.
func (s *LogSink) Name() string {
	return "log"
}

// Submit logs the result and always succeeds.
func (s *LogSink) Submit(_ context.Context, result oracle.ConsensusResult) error {
	s.logger.Info("Consensus result",
		"asset", result.Asset,
		"price", result.Price,
		"confidence", result.Confidence,
		"score", result.ConsensusScore,
		"variance", result.PriceVariance,
		"outliers", result.OutlierCount,
		"sources", result.Sources)
	return nil
}
