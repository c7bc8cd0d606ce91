package analysis

import "errors"

var (
	errMinSpeedTooHigh     = errors.New("min speed must be below nominal speed")
	errVibrationThresholds = errors.New("vibration warning threshold must be below critical")
	errTempBounds          = errors.New("temperature lower bound must be below upper bound")
)
