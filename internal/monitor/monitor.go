package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/overlaykit/markers/internal/storage"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = time.Second

// MarkerCounter reports live markers.
type MarkerCounter interface {
	Count() int
}

// PendingCounter reports callbacks waiting on the clock.
type PendingCounter interface {
	Pending() int
}

// EntityCounter reports tracked entities.
type EntityCounter interface {
	Len() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Markers    MarkerCounter
	Clock      PendingCounter
	Entities   EntityCounter   // optional
	Storage    storage.Backend // optional, reports its export path when Exportable
	Logger     *slog.Logger
	StatusFile string // status is only kept in memory when empty
	Interval   time.Duration
}

// Status is a snapshot of the running service.
type Status struct {
	Time             time.Time `json:"time"`
	LiveMarkers      int       `json:"liveMarkers"`
	PendingCallbacks int       `json:"pendingCallbacks"`
	Entities         int       `json:"entities"`
	ExportPath       string    `json:"exportPath,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	last      Status
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status takes a fresh snapshot.
func (s *Service) Status() Status {
	st := Status{Time: time.Now()}
	if s.deps.Markers != nil {
		st.LiveMarkers = s.deps.Markers.Count()
	}
	if s.deps.Clock != nil {
		st.PendingCallbacks = s.deps.Clock.Pending()
	}
	if s.deps.Entities != nil {
		st.Entities = s.deps.Entities.Len()
	}
	if exp, ok := s.deps.Storage.(storage.Exportable); ok {
		st.ExportPath = exp.GetExportedFilePath()
	}
	return st
}

// Last returns the snapshot written by the most recent tick.
func (s *Service) Last() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// WriteStatus writes st to the status file, replacing its contents.
func (s *Service) WriteStatus(st Status) error {
	if s.deps.StatusFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusFile, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

func (s *Service) tick() {
	st := s.Status()
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()

	if err := s.WriteStatus(st); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
	}
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				s.tick()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the final status write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	done := s.done
	s.mu.Unlock()
	<-done
}
