package fatigue

import "errors"

// Sentinel kinds for fatigue detection errors.
var (
	// ErrInsufficientData means the lookback window held fewer than the
	// minimum number of daily points. Retrying will not produce more data.
	ErrInsufficientData = errors.New("insufficient data for fatigue detection")
)
