package sessions

import (
	"sync"
	"time"

	"github.com/buemura/contractlens/internal/broadcast"
	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/pkg/types"
)

// Session owns one engine and the buffer it analyzes.
type Session struct {
	ID        string
	CreatedAt time.Time
	Engine    *engine.Engine
	Buffer    *editor.Buffer

	token broadcast.Token

	mu         sync.RWMutex
	updatedAt  time.Time
	publishes  int
	lastScore  int
	lastIssues int
	hasReport  bool
}

// Info is the JSON view of a session.
type Info struct {
	ID         string        `json:"id"`
	State      string        `json:"state"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Bytes      int           `json:"bytes"`
	Publishes  int           `json:"publishes"`
	Score      *int          `json:"score,omitempty"`
	IssueCount int           `json:"issue_count"`
	Config     config.Engine `json:"config"`
}

func (s *Session) observe(r *types.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
	s.publishes++
	if r == nil {
		s.hasReport = false
		s.lastScore, s.lastIssues = 0, 0
		return
	}
	s.hasReport = true
	s.lastScore = r.OverallScore
	s.lastIssues = len(r.Issues)
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{
		ID:         s.ID,
		State:      s.Engine.State().String(),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.updatedAt,
		Bytes:      len(s.Buffer.Text()),
		Publishes:  s.publishes,
		IssueCount: s.lastIssues,
		Config:     s.Engine.Config(),
	}
	if s.hasReport {
		score := s.lastScore
		info.Score = &score
	}
	return info
}

// SetSource replaces the buffer text and schedules a debounced analysis.
func (s *Session) SetSource(source string) error {
	s.Buffer.SetText(source)
	s.mu.Lock()
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return s.Engine.Trigger(source)
}
