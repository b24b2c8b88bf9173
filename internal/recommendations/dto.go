package recommendations

import "ifs-actionplan/internal/plans"

// GenerateResponse is returned for a single row.
type GenerateResponse struct {
	Cached         bool                         `json:"cached"`
	Recommendation plans.RecommendationResponse `json:"recommendation"`
}

// BatchRequest selects rows to generate. No rows means every row.
type BatchRequest struct {
	Rows  []int `json:"rows"`
	Force bool  `json:"force"`
}

type BatchResponse struct {
	Results []GenerateResponse `json:"results"`
	Errors  []RowError         `json:"errors"`
}

// RowError reports a row that produced no recommendation.
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toGenerateResponse(res Result) GenerateResponse {
	return GenerateResponse{
		Cached:         res.Cached,
		Recommendation: plans.ToRecommendationResponse(res.Recommendation),
	}
}

func toBatchResponse(b Batch) BatchResponse {
	out := BatchResponse{
		Results: make([]GenerateResponse, 0, len(b.Results)),
		Errors:  make([]RowError, 0, len(b.Failures)),
	}
	for _, r := range b.Results {
		out.Results = append(out.Results, toGenerateResponse(r))
	}
	for _, f := range b.Failures {
		_, code, msg := classify(f.Err)
		out.Errors = append(out.Errors, RowError{Row: f.Row, Code: code, Message: msg})
	}
	return out
}
