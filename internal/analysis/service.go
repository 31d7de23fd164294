package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// Event sources
const (
	SourceAnalyze  = "analyze"
	SourceActivity = "activity"
	SourceRescore  = "rescore"
)

// Result pairs the updated record with its analysis
type Result struct {
	Student  *contracts.Student `json:"student"`
	Analysis Analysis           `json:"analysis"`
	Changed  bool               `json:"changed"`
}

// Service analyses persisted students and writes the outcome back
type Service struct {
	analyzer *Analyzer
	students contracts.StudentRepository
	events   contracts.EventPublisher
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates an analysis service; events may be nil
func NewService(analyzer *Analyzer, students contracts.StudentRepository, events contracts.EventPublisher, log *logger.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		students: students,
		events:   events,
		log:      log.WithComponent("analysis"),
		now:      time.Now,
	}
}

// Analyzer exposes the pure analyzer
func (s *Service) Analyzer() *Analyzer {
	return s.analyzer
}

// AnalyzeStudent loads a student, analyses it, persists the assessment and
// publishes a risk event when the final risk or stage moved.
func (s *Service) AnalyzeStudent(ctx context.Context, studentID, source string) (*Result, error) {
	student, err := s.students.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student %s: %w", studentID, err)
	}

	res, event := s.Reassess(student, source)
	if err := s.students.SaveAssessment(ctx, student); err != nil {
		return nil, fmt.Errorf("save assessment %s: %w", studentID, err)
	}
	if event != nil {
		s.Publish(*event)
	}

	s.log.WithStudent(studentID).WithFields(map[string]interface{}{
		"final_risk":  res.Analysis.Assessment.FinalRisk,
		"probability": res.Analysis.Assessment.MLProbability,
		"cluster":     res.Analysis.Assessment.ClusterID,
		"changed":     res.Changed,
	}).Debug("student analysed")

	return res, nil
}

// CreateStudent scores a new record and inserts it
func (s *Service) CreateStudent(ctx context.Context, student *contracts.Student) (*Result, error) {
	student.FinalRisk, student.Stage = "", 0
	res, _ := s.Reassess(student, SourceAnalyze)
	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student %s: %w", student.StudentID, err)
	}
	res.Changed = false
	return res, nil
}

// UpdateStudent re-scores an edited record and writes attributes and
// assessment together.
func (s *Service) UpdateStudent(ctx context.Context, student *contracts.Student, source string) (*Result, error) {
	res, event := s.Reassess(student, source)
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("update student %s: %w", student.StudentID, err)
	}
	if event != nil {
		s.Publish(*event)
	}
	return res, nil
}

// Reassess analyses a record in memory and applies the assessment to it.
// The returned event is non-nil when final risk or stage changed; the caller
// persists the record and publishes the event.
func (s *Service) Reassess(student *contracts.Student, source string) (*Result, *contracts.RiskEvent) {
	prevRisk, prevStage := student.FinalRisk, student.Stage

	a := s.analyzer.Analyze(student.StudentSnapshot)
	now := s.now()
	student.ApplyAssessment(a.Assessment, now)

	res := &Result{
		Student:  student,
		Analysis: a,
		Changed:  prevRisk != student.FinalRisk || prevStage != student.Stage,
	}
	if !res.Changed {
		return res, nil
	}

	return res, &contracts.RiskEvent{
		ID:            uuid.NewString(),
		StudentID:     student.StudentID,
		PreviousRisk:  prevRisk,
		FinalRisk:     student.FinalRisk,
		PreviousStage: prevStage,
		Stage:         student.Stage,
		Probability:   student.DropoutProbability,
		Source:        source,
		OccurredAt:    now,
	}
}

// Publish forwards an event when a publisher is configured
func (s *Service) Publish(event contracts.RiskEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
