package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: repository interfaces are defined here only

// StudentFilter narrows a student listing; zero values match everything
type StudentFilter struct {
	Department string
	FinalRisk  RiskLevel
	ClusterID  *int
	Stage      Stage
	Limit      int
	Offset     int
}

// StudentRepository manages persisted student records
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]*Student, error)
	GetByStudentID(ctx context.Context, studentID string) (*Student, error)
	Create(ctx context.Context, student *Student) error
	Update(ctx context.Context, student *Student) error // attributes and assessment
	SaveAssessment(ctx context.Context, student *Student) error
	SaveAssessments(ctx context.Context, students []*Student) error
	LinkChat(ctx context.Context, studentID, chatID string) error
}

// CounselorRepository reads the counselor roster
type CounselorRepository interface {
	ListActive(ctx context.Context) ([]*Counselor, error)
	GetByID(ctx context.Context, id int64) (*Counselor, error)
}

// ActivityRepository stores bot answers
type ActivityRepository interface {
	Insert(ctx context.Context, log *ActivityLog) error
	CountSince(ctx context.Context, studentID string, since time.Time) (int, error)
	ActiveStudentsSince(ctx context.Context, since time.Time) ([]string, error)
}

// RescoreRun records one scheduled rescoring pass
type RescoreRun struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Changed    int
	Failed     int
	Error      string
}

// RunRepository records rescore runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *RescoreRun) error
}

// EventPublisher receives risk change events
type EventPublisher interface {
	Publish(event RiskEvent)
}
