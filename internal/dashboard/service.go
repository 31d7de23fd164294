package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/edupulse/backend/internal/assignment"
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/model"
	"github.com/wonny/edupulse/backend/internal/repository"
	"github.com/wonny/edupulse/backend/pkg/logger"
	"github.com/wonny/edupulse/backend/pkg/redis"
)

// DefaultAtRiskLimit is used when the caller does not pass a positive limit
const DefaultAtRiskLimit = 10

// Main issue labels for the at-risk table
const (
	IssueBacklogs    = "Multiple backlogs"
	IssueAttendance  = "Very low attendance"
	IssueFees        = "Pending fees"
	IssuePerformance = "Low academic performance"
)

// Service builds read-only dashboard aggregates over the student table
// ⭐ SSOT: dashboard aggregation lives here only
type Service struct {
	students   contracts.StudentRepository
	counselors contracts.CounselorRepository
	assigner   *assignment.Engine
	cache      *redis.Cache
	logger     *logger.Logger
}

// NewService creates a dashboard service; cache may be nil
func NewService(
	students contracts.StudentRepository,
	counselors contracts.CounselorRepository,
	assigner *assignment.Engine,
	cache *redis.Cache,
	log *logger.Logger,
) *Service {
	if assigner == nil {
		assigner = assignment.NewEngine(nil)
	}
	return &Service{
		students:   students,
		counselors: counselors,
		assigner:   assigner,
		cache:      cache,
		logger:     log.WithComponent("dashboard"),
	}
}

func (s *Service) cached(ctx context.Context, key string, dest interface{}, fn func() (interface{}, error)) error {
	if s.cache == nil {
		v, err := fn()
		if err != nil {
			return err
		}
		return assign(dest, v)
	}
	return s.cache.GetOrSet(ctx, key, dest, redis.TTLShort, fn)
}

// assign copies v into dest the same way a cache hit would
func assign(dest, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Invalidate drops every cached aggregate
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, key := range redis.DashboardKeys() {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to invalidate dashboard cache")
		}
	}
}

func (s *Service) all(ctx context.Context) ([]*contracts.Student, error) {
	students, err := s.students.List(ctx, contracts.StudentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// =============================================================================
// Aggregates
// =============================================================================

// Stats returns the headline counters. Averages skip absent values.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	err := s.cached(ctx, redis.DashboardStatsKey(), &out, func() (interface{}, error) {
		students, err := s.all(ctx)
		if err != nil {
			return nil, err
		}
		return computeStats(students), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func computeStats(students []*contracts.Student) Stats {
	st := Stats{TotalStudents: len(students)}

	var attSum, cgpaSum float64
	var attN, cgpaN int
	for _, s := range students {
		switch s.FinalRisk {
		case contracts.RiskRed:
			st.RedCount++
		case contracts.RiskYellow:
			st.YellowCount++
		default:
			st.GreenCount++
		}
		if s.AttendancePercentage != nil {
			attSum += *s.AttendancePercentage
			attN++
		}
		if s.CGPA != nil {
			cgpaSum += *s.CGPA
			cgpaN++
		}
		if s.Backlogs != nil && *s.Backlogs > 0 {
			st.StudentsWithBacklogs++
		}
		if s.FeesPending != nil && *s.FeesPending {
			st.FeesPendingCount++
		}
	}

	if attN > 0 {
		st.AvgAttendance = round(attSum/float64(attN), 2)
	}
	if cgpaN > 0 {
		st.AvgCGPA = round(cgpaSum/float64(cgpaN), 2)
	}
	return st
}

// RiskDistribution returns per-department risk counts ordered by department
func (s *Service) RiskDistribution(ctx context.Context) ([]DepartmentRisk, error) {
	var out []DepartmentRisk
	err := s.cached(ctx, redis.RiskDistributionKey(), &out, func() (interface{}, error) {
		students, err := s.all(ctx)
		if err != nil {
			return nil, err
		}

		byDept := make(map[string]*DepartmentRisk)
		for _, st := range students {
			d, ok := byDept[st.Department]
			if !ok {
				d = &DepartmentRisk{Department: st.Department}
				byDept[st.Department] = d
			}
			switch st.FinalRisk {
			case contracts.RiskRed:
				d.Red++
			case contracts.RiskYellow:
				d.Yellow++
			default:
				d.Green++
			}
			d.Total++
		}

		result := make([]DepartmentRisk, 0, len(byDept))
		for _, d := range byDept {
			result = append(result, *d)
		}
		sort.Slice(result, func(i, j int) bool { return result[i].Department < result[j].Department })
		return result, nil
	})
	return out, err
}

// AtRisk returns YELLOW and RED students by descending dropout probability
func (s *Service) AtRisk(ctx context.Context, limit int) ([]AtRiskStudent, error) {
	if limit <= 0 {
		limit = DefaultAtRiskLimit
	}

	students, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	var flagged []*contracts.Student
	for _, st := range students {
		if st.FinalRisk == contracts.RiskYellow || st.FinalRisk == contracts.RiskRed {
			flagged = append(flagged, st)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].DropoutProbability > flagged[j].DropoutProbability
	})
	if len(flagged) > limit {
		flagged = flagged[:limit]
	}

	out := make([]AtRiskStudent, 0, len(flagged))
	for _, st := range flagged {
		out = append(out, AtRiskStudent{
			StudentID:   st.StudentID,
			Name:        st.Name,
			Department:  st.Department,
			Risk:        st.FinalRisk,
			Probability: round(st.DropoutProbability*100, 1),
			MainIssue:   MainIssue(st),
		})
	}
	return out, nil
}

// MainIssue picks the headline problem for the at-risk table.
// Absent values never trigger a label.
func MainIssue(s *contracts.Student) string {
	switch {
	case s.Backlogs != nil && *s.Backlogs >= 3:
		return IssueBacklogs
	case s.AttendancePercentage != nil && *s.AttendancePercentage < 60:
		return IssueAttendance
	case s.FeesPending != nil && *s.FeesPending:
		return IssueFees
	default:
		return IssuePerformance
	}
}

// ClusterOverview returns profile plus risk and stage counts for clusters 0-3
func (s *Service) ClusterOverview(ctx context.Context) ([]ClusterOverview, error) {
	var out []ClusterOverview
	err := s.cached(ctx, redis.ClusterOverviewKey(), &out, func() (interface{}, error) {
		students, err := s.all(ctx)
		if err != nil {
			return nil, err
		}

		result := make([]ClusterOverview, model.ClusterCount)
		for id := range result {
			p := model.ClusterInfo(id)
			result[id] = ClusterOverview{
				ClusterID:        id,
				Name:             p.Name,
				Description:      p.Description,
				TypicalIssues:    p.TypicalIssues,
				RecommendedFocus: p.Intervention,
			}
		}

		for _, st := range students {
			if st.ClusterID == nil || *st.ClusterID < 0 || *st.ClusterID >= model.ClusterCount {
				continue
			}
			c := &result[*st.ClusterID]
			c.TotalStudents++
			switch st.FinalRisk {
			case contracts.RiskRed:
				c.Red++
			case contracts.RiskYellow:
				c.Yellow++
			default:
				c.Green++
			}
			switch st.Stage {
			case contracts.StageIntensive:
				c.Stage3++
			case contracts.StageSupport:
				c.Stage2++
			default:
				c.Stage1++
			}
		}
		return result, nil
	})
	return out, err
}

// ClusterStudents lists one cluster's students, optionally narrowed to a stage
func (s *Service) ClusterStudents(ctx context.Context, clusterID int, stage contracts.Stage) ([]*contracts.Student, error) {
	students, err := s.students.List(ctx, contracts.StudentFilter{ClusterID: &clusterID, Stage: stage})
	if err != nil {
		return nil, fmt.Errorf("list cluster %d: %w", clusterID, err)
	}
	return students, nil
}

// =============================================================================
// Counselor views
// =============================================================================

func (s *Service) assignment(ctx context.Context) ([]*contracts.Counselor, assignment.Assignment, error) {
	counselors, err := s.counselors.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list counselors: %w", err)
	}
	students, err := s.all(ctx)
	if err != nil {
		return nil, nil, err
	}
	return counselors, s.assigner.Assign(counselors, students), nil
}

// CounselorSummary returns one caseload summary per active counselor
func (s *Service) CounselorSummary(ctx context.Context) ([]CounselorSummary, error) {
	var out []CounselorSummary
	err := s.cached(ctx, redis.CounselorSummaryKey(), &out, func() (interface{}, error) {
		counselors, mapping, err := s.assignment(ctx)
		if err != nil {
			return nil, err
		}

		result := make([]CounselorSummary, 0, len(counselors))
		for _, c := range counselors {
			result = append(result, summarize(c, mapping[c.ID]))
		}
		return result, nil
	})
	return out, err
}

func summarize(c *contracts.Counselor, assigned []*contracts.Student) CounselorSummary {
	sum := CounselorSummary{
		ID:             c.ID,
		Username:       c.Username,
		FullName:       c.FullName,
		Email:          c.Email,
		Specialization: c.Specialization,
		TotalStudents:  len(assigned),
	}

	var probSum float64
	for _, st := range assigned {
		switch st.FinalRisk {
		case contracts.RiskRed:
			sum.HighRisk++
		case contracts.RiskYellow:
			sum.MediumRisk++
		default:
			sum.LowRisk++
		}
		if st.CounsellingSessions != nil {
			sum.TotalCounsellingSessions += *st.CounsellingSessions
		}
		probSum += st.DropoutProbability
	}

	sum.UnresolvedCases = sum.HighRisk + sum.MediumRisk
	sum.ResolvedCases = sum.LowRisk
	if len(assigned) > 0 {
		sum.AvgDropoutProbability = probSum / float64(len(assigned))
	}
	return sum
}

// CounselorStudents lists the students currently routed to one active counselor
func (s *Service) CounselorStudents(ctx context.Context, counselorID int64) ([]*contracts.Student, error) {
	counselors, mapping, err := s.assignment(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range counselors {
		if c.ID == counselorID {
			return mapping[counselorID], nil
		}
	}
	return nil, fmt.Errorf("counselor %d: %w", counselorID, repository.ErrNotFound)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
