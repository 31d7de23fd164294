package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// MemoryStore is an in-process implementation of every repository
// interface. It backs the demo server and handler tests.
type MemoryStore struct {
	mu         sync.RWMutex
	students   map[string]*contracts.Student
	counselors map[int64]*contracts.Counselor
	activity   []contracts.ActivityLog
	runs       map[string]contracts.RescoreRun
	nextID     int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:   make(map[string]*contracts.Student),
		counselors: make(map[int64]*contracts.Counselor),
		runs:       make(map[string]contracts.RescoreRun),
	}
}

func copyStudent(s *contracts.Student) *contracts.Student {
	c := *s
	return &c
}

// SeedStudents inserts or replaces students, assigning ids to new ones
func (m *MemoryStore) SeedStudents(students []*contracts.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range students {
		if s.ID == 0 {
			m.nextID++
			s.ID = m.nextID
		} else if s.ID > m.nextID {
			m.nextID = s.ID
		}
		m.students[s.StudentID] = copyStudent(s)
	}
}

// SeedCounselors inserts or replaces counselors
func (m *MemoryStore) SeedCounselors(counselors []*contracts.Counselor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range counselors {
		cc := *c
		m.counselors[c.ID] = &cc
	}
}

// =============================================================================
// contracts.StudentRepository
// =============================================================================

// List implements contracts.StudentRepository
func (m *MemoryStore) List(_ context.Context, f contracts.StudentFilter) ([]*contracts.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*contracts.Student
	for _, s := range m.students {
		if f.Department != "" && s.Department != f.Department {
			continue
		}
		if f.FinalRisk != "" && s.FinalRisk != f.FinalRisk {
			continue
		}
		if f.ClusterID != nil && (s.ClusterID == nil || *s.ClusterID != *f.ClusterID) {
			continue
		}
		if f.Stage != 0 && s.Stage != f.Stage {
			continue
		}
		out = append(out, copyStudent(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// GetByStudentID implements contracts.StudentRepository
func (m *MemoryStore) GetByStudentID(_ context.Context, studentID string) (*contracts.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[studentID]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	return copyStudent(s), nil
}

// Create implements contracts.StudentRepository
func (m *MemoryStore) Create(_ context.Context, s *contracts.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.StudentID]; ok {
		return fmt.Errorf("student %s: %w", s.StudentID, ErrAlreadyExists)
	}
	m.nextID++
	s.ID = m.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.students[s.StudentID] = copyStudent(s)
	return nil
}

// Update implements contracts.StudentRepository
func (m *MemoryStore) Update(_ context.Context, s *contracts.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.students[s.StudentID]
	if !ok {
		return fmt.Errorf("student %s: %w", s.StudentID, ErrNotFound)
	}
	next := copyStudent(s)
	next.ID, next.CreatedAt, next.TelegramChatID = cur.ID, cur.CreatedAt, cur.TelegramChatID
	m.students[s.StudentID] = next
	return nil
}

// SaveAssessment implements contracts.StudentRepository
func (m *MemoryStore) SaveAssessment(_ context.Context, s *contracts.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAssessment(s)
}

// SaveAssessments implements contracts.StudentRepository
func (m *MemoryStore) SaveAssessments(_ context.Context, students []*contracts.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range students {
		if err := m.saveAssessment(s); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) saveAssessment(s *contracts.Student) error {
	cur, ok := m.students[s.StudentID]
	if !ok {
		return fmt.Errorf("student %s: %w", s.StudentID, ErrNotFound)
	}
	cur.BaselineRisk = s.BaselineRisk
	cur.FinalRisk = s.FinalRisk
	cur.MLRiskScore = s.MLRiskScore
	cur.DropoutProbability = s.DropoutProbability
	cur.ClusterID = s.ClusterID
	cur.Stage = s.Stage
	cur.LastRiskUpdate = s.LastRiskUpdate
	return nil
}

// LinkChat implements contracts.StudentRepository
func (m *MemoryStore) LinkChat(_ context.Context, studentID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.students[studentID]
	if !ok {
		return fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	cur.TelegramChatID = contracts.Ptr(chatID)
	return nil
}

// =============================================================================
// contracts.CounselorRepository
// =============================================================================

// ListActive implements contracts.CounselorRepository
func (m *MemoryStore) ListActive(_ context.Context) ([]*contracts.Counselor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*contracts.Counselor
	for _, c := range m.counselors {
		if c.Active {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID implements contracts.CounselorRepository
func (m *MemoryStore) GetByID(_ context.Context, id int64) (*contracts.Counselor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.counselors[id]
	if !ok {
		return nil, fmt.Errorf("counselor %d: %w", id, ErrNotFound)
	}
	cc := *c
	return &cc, nil
}

// =============================================================================
// contracts.ActivityRepository / contracts.RunRepository
// =============================================================================

// Insert implements contracts.ActivityRepository
func (m *MemoryStore) Insert(_ context.Context, log *contracts.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[log.StudentID]; !ok {
		return fmt.Errorf("student %s: %w", log.StudentID, ErrNotFound)
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	log.ID = int64(len(m.activity) + 1)
	m.activity = append(m.activity, *log)
	return nil
}

// CountSince implements contracts.ActivityRepository
func (m *MemoryStore) CountSince(_ context.Context, studentID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.activity {
		if a.StudentID == studentID && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ActiveStudentsSince implements contracts.ActivityRepository
func (m *MemoryStore) ActiveStudentsSince(_ context.Context, since time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, a := range m.activity {
		if !a.CreatedAt.Before(since) && !seen[a.StudentID] {
			seen[a.StudentID] = true
			ids = append(ids, a.StudentID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveRun implements contracts.RunRepository
func (m *MemoryStore) SaveRun(_ context.Context, run *contracts.RescoreRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = *run
	return nil
}

// Runs returns recorded rescore runs ordered by start time
func (m *MemoryStore) Runs() []contracts.RescoreRun {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]contracts.RescoreRun, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}
