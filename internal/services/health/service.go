package health

import (
	"context"
	"time"

	"ifs-actionplan/internal/guide"
)

// GuideStatus reports the state of the guide table without loading it.
type GuideStatus interface {
	Status() guide.Status
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	Guide    GuideStatus
	DB       Pinger
	Provider string
	Model    string
	Store    string
}

// Report is the health payload.
type Report struct {
	OK       bool         `json:"ok"`
	Guide    guide.Status `json:"guide"`
	Provider string       `json:"provider"`
	Model    string       `json:"model,omitempty"`
	Store    string       `json:"store"`
	Database string       `json:"database"`
}

// Status checks the database, when configured, and reports guide and provider state.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Provider: s.Provider, Model: s.Model, Store: s.Store, Database: "memory"}
	if s.Guide != nil {
		r.Guide = s.Guide.Status()
	}
	if s.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			r.OK = false
			r.Database = "unreachable"
		} else {
			r.Database = "ok"
		}
	}
	return r
}
