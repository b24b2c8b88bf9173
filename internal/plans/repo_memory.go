package plans

import (
	"context"
	"sort"
	"sync"

	"ifs-actionplan/internal/actionplan"
)

type recKey struct {
	planID string
	row    int
}

// MemoryRepo keeps plans in process memory. Used when DATABASE_URL is unset.
type MemoryRepo struct {
	mu    sync.RWMutex
	plans map[string]Plan
	recs  map[recKey]Recommendation
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		plans: make(map[string]Plan),
		recs:  make(map[recKey]Recommendation),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, plan Plan) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.Rows = append([]actionplan.Row(nil), plan.Rows...)
	plan.RowCount = len(plan.Rows)
	r.plans[plan.ID] = plan
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, planID string) (Plan, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[planID]
	if !ok || plan.UserID != userID {
		return Plan{}, ErrNotFound
	}
	plan.Rows = append([]actionplan.Row(nil), plan.Rows...)
	return plan, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, limit, offset int) ([]Plan, error) {
	_ = ctx
	limit, offset = clampPage(limit, offset)
	r.mu.RLock()
	var out []Plan
	for _, p := range r.plans {
		if p.UserID == userID {
			p.Rows = nil
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Plan{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) SaveRecommendation(ctx context.Context, rec Recommendation) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[rec.PlanID]; !ok {
		return ErrNotFound
	}
	rec.Sections = append([]Section(nil), rec.Sections...)
	r.recs[recKey{rec.PlanID, rec.RowIndex}] = rec
	return nil
}

func (r *MemoryRepo) GetRecommendation(ctx context.Context, planID string, rowIndex int) (Recommendation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[recKey{planID, rowIndex}]
	if !ok {
		return Recommendation{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) ListRecommendations(ctx context.Context, planID string) ([]Recommendation, error) {
	_ = ctx
	r.mu.RLock()
	var out []Recommendation
	for k, rec := range r.recs {
		if k.planID == planID {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}

func (r *MemoryRepo) DeleteRecommendation(ctx context.Context, planID string, rowIndex int) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recKey{planID, rowIndex}
	if _, ok := r.recs[key]; !ok {
		return ErrNotFound
	}
	delete(r.recs, key)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
