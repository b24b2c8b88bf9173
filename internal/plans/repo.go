package plans

import "context"

// Repo persists plans and their recommendations.
type Repo interface {
	Create(ctx context.Context, plan Plan) error
	Get(ctx context.Context, userID, planID string) (Plan, error)
	List(ctx context.Context, userID string, limit, offset int) ([]Plan, error)

	SaveRecommendation(ctx context.Context, rec Recommendation) error
	GetRecommendation(ctx context.Context, planID string, rowIndex int) (Recommendation, error)
	ListRecommendations(ctx context.Context, planID string) ([]Recommendation, error)
	DeleteRecommendation(ctx context.Context, planID string, rowIndex int) error
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
