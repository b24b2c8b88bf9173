package recommendations

import (
	"errors"

	"ifs-actionplan/internal/plans"
)

var (
	ErrRowNotFound      = plans.ErrRowNotFound
	ErrNoRecommendation = errors.New("no recommendation for this row")
	ErrGuideUnavailable = errors.New("guide is unavailable")
	ErrGenerationFailed = errors.New("recommendation generation failed")
)
