package oracle

import "errors"

var (
	// ErrNoQuotes indicates that no quotes were fetched from any source.
	ErrNoQuotes = errors.New("no price data available")
	// ErrNoValidQuotes indicates that the validator accepted zero quotes.
	ErrNoValidQuotes = errors.New("no valid prices")
	// ErrInsufficientSources indicates fewer validated quotes than MinSources.
	ErrInsufficientSources = errors.New("insufficient sources")
	// ErrTooManyOutliers indicates that the outlier fraction exceeded MaxOutlierPercentage.
	ErrTooManyOutliers = errors.New("too many outliers")
)
