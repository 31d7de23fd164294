package assignment

import (
	"sort"
	"strings"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// Area is the counselor specialization a student is routed toward
type Area string

const (
	AreaAcademic   Area = "academic"
	AreaFinancial  Area = "financial"
	AreaAttendance Area = "attendance"
	AreaGeneral    Area = "general"
)

// Assignment maps counselor id to the students routed to them, in input order
type Assignment map[int64][]*contracts.Student

// Strategy places a student within a non-empty counselor pool
type Strategy interface {
	Pick(student *contracts.Student, pool []*contracts.Counselor) *contracts.Counselor
}

// ModuloStrategy picks pool[student.ID mod len(pool)]
type ModuloStrategy struct{}

// Pick implements Strategy
func (ModuloStrategy) Pick(student *contracts.Student, pool []*contracts.Counselor) *contracts.Counselor {
	n := int64(len(pool))
	idx := student.ID % n
	if idx < 0 {
		idx += n
	}
	return pool[idx]
}

// Engine routes students to counselors by specialization.
// Stateless: every call recomputes the full assignment.
type Engine struct {
	strategy Strategy
}

// NewEngine creates an engine; a nil strategy selects ModuloStrategy
func NewEngine(strategy Strategy) *Engine {
	if strategy == nil {
		strategy = ModuloStrategy{}
	}
	return &Engine{strategy: strategy}
}

// Assign routes every student. Each listed counselor gets an entry, possibly
// empty; with no counselors the result is empty and students stay unassigned.
func (e *Engine) Assign(counselors []*contracts.Counselor, students []*contracts.Student) Assignment {
	result := make(Assignment, len(counselors))
	for _, c := range counselors {
		result[c.ID] = []*contracts.Student{}
	}
	if len(counselors) == 0 {
		return result
	}

	pools := make(map[Area][]*contracts.Counselor)
	for _, c := range counselors {
		key := SpecializationKey(c.Specialization)
		pools[key] = append(pools[key], c)
	}

	for _, s := range students {
		pool := pools[Classify(s)]
		if len(pool) == 0 {
			pool = counselors
		}
		picked := e.strategy.Pick(s, pool)
		result[picked.ID] = append(result[picked.ID], s)
	}
	return result
}

// CounselorIDs returns the assignment keys in ascending order
func (a Assignment) CounselorIDs() []int64 {
	ids := make([]int64, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SpecializationKey normalizes a counselor specialization; blank means general
func SpecializationKey(specialization string) Area {
	key := strings.ToLower(strings.TrimSpace(specialization))
	if key == "" {
		return AreaGeneral
	}
	return Area(key)
}

// Classify picks a student's area. The cluster id wins over attribute
// heuristics; absent attributes never trigger a heuristic.
func Classify(s *contracts.Student) Area {
	if s.ClusterID != nil {
		switch *s.ClusterID {
		case 1:
			return AreaAcademic
		case 2:
			return AreaFinancial
		case 3:
			return AreaAttendance
		}
	}

	if isTrue(s.FeesPending) || (s.FeesAmountDue != nil && *s.FeesAmountDue > 0) {
		return AreaFinancial
	}
	if (s.Backlogs != nil && *s.Backlogs >= 2) || lessThan(s.CGPA, 6.0) {
		return AreaAcademic
	}
	if lessThan(s.AttendancePercentage, 75) || lessThan(s.BotEngagementScore, 40) {
		return AreaAttendance
	}
	return AreaGeneral
}

func isTrue(v *bool) bool {
	return v != nil && *v
}

func lessThan(v *float64, limit float64) bool {
	return v != nil && *v < limit
}
