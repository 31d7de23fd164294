package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

func student(id int64, mutate func(s *contracts.Student)) *contracts.Student {
	s := &contracts.Student{ID: id, StudentID: "S" + string(rune('A'+id%26))}
	if mutate != nil {
		mutate(s)
	}
	return s
}

func counselor(id int64, spec string) *contracts.Counselor {
	return &contracts.Counselor{ID: id, Username: "c", Specialization: spec, Active: true}
}

func TestAssign_NoCounselors(t *testing.T) {
	got := NewEngine(nil).Assign(nil, []*contracts.Student{student(1, nil), student(2, nil)})

	assert.Empty(t, got)
	for _, list := range got {
		assert.Empty(t, list)
	}
}

func TestAssign_EveryCounselorHasEntry(t *testing.T) {
	counselors := []*contracts.Counselor{counselor(10, "academic"), counselor(11, "financial")}

	got := NewEngine(nil).Assign(counselors, nil)

	require.Len(t, got, 2)
	assert.NotNil(t, got[10])
	assert.Empty(t, got[10])
	assert.Empty(t, got[11])
}

func TestAssign_SpecializationMatch(t *testing.T) {
	counselors := []*contracts.Counselor{counselor(10, " Academic "), counselor(11, "financial")}
	students := []*contracts.Student{
		student(1, func(s *contracts.Student) { s.ClusterID = contracts.Ptr(1) }),
		student(2, func(s *contracts.Student) { s.Backlogs = contracts.Ptr(3) }),
	}

	e := NewEngine(nil)
	first := e.Assign(counselors, students)
	second := e.Assign(counselors, students)

	assert.Equal(t, []*contracts.Student{students[0], students[1]}, first[10])
	assert.Empty(t, first[11])
	assert.Equal(t, first, second, "assignment is idempotent")
}

func TestAssign_FallsBackToFullRoster(t *testing.T) {
	counselors := []*contracts.Counselor{counselor(10, "academic"), counselor(11, "")}
	// attendance area has no specialist: id 3 mod 2 = 1 -> counselor 11
	s := student(3, func(s *contracts.Student) { s.ClusterID = contracts.Ptr(3) })

	got := NewEngine(nil).Assign(counselors, []*contracts.Student{s})

	assert.Equal(t, []*contracts.Student{s}, got[11])
}

func TestAssign_ModuloWithinPool(t *testing.T) {
	counselors := []*contracts.Counselor{
		counselor(10, "financial"),
		counselor(11, "academic"),
		counselor(12, "financial"),
	}
	students := []*contracts.Student{
		student(4, func(s *contracts.Student) { s.FeesPending = contracts.Ptr(true) }),
		student(5, func(s *contracts.Student) { s.FeesPending = contracts.Ptr(true) }),
	}

	got := NewEngine(nil).Assign(counselors, students)

	assert.Equal(t, []*contracts.Student{students[0]}, got[10]) // 4 mod 2 = 0
	assert.Equal(t, []*contracts.Student{students[1]}, got[12]) // 5 mod 2 = 1
	assert.Empty(t, got[11])
}

type firstStrategy struct{}

func (firstStrategy) Pick(_ *contracts.Student, pool []*contracts.Counselor) *contracts.Counselor {
	return pool[0]
}

func TestAssign_PluggableStrategy(t *testing.T) {
	counselors := []*contracts.Counselor{counselor(10, ""), counselor(11, "")}
	students := []*contracts.Student{student(1, nil), student(2, nil), student(3, nil)}

	got := NewEngine(firstStrategy{}).Assign(counselors, students)

	assert.Len(t, got[10], 3)
	assert.Empty(t, got[11])
}

func TestModuloStrategy_NegativeID(t *testing.T) {
	pool := []*contracts.Counselor{counselor(1, ""), counselor(2, ""), counselor(3, "")}

	got := ModuloStrategy{}.Pick(&contracts.Student{ID: -1}, pool)

	assert.Equal(t, int64(3), got.ID)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *contracts.Student)
		want   Area
	}{
		{"cluster 1", func(s *contracts.Student) { s.ClusterID = contracts.Ptr(1) }, AreaAcademic},
		{"cluster 2", func(s *contracts.Student) { s.ClusterID = contracts.Ptr(2) }, AreaFinancial},
		{"cluster 3", func(s *contracts.Student) { s.ClusterID = contracts.Ptr(3) }, AreaAttendance},
		{"cluster beats heuristics", func(s *contracts.Student) {
			s.ClusterID = contracts.Ptr(1)
			s.FeesPending = contracts.Ptr(true)
		}, AreaAcademic},
		{"cluster 0 uses heuristics", func(s *contracts.Student) {
			s.ClusterID = contracts.Ptr(0)
			s.FeesAmountDue = contracts.Ptr(100.0)
		}, AreaFinancial},
		{"fees before academics", func(s *contracts.Student) {
			s.FeesPending = contracts.Ptr(true)
			s.Backlogs = contracts.Ptr(4)
		}, AreaFinancial},
		{"backlogs", func(s *contracts.Student) { s.Backlogs = contracts.Ptr(2) }, AreaAcademic},
		{"low cgpa", func(s *contracts.Student) { s.CGPA = contracts.Ptr(5.9) }, AreaAcademic},
		{"zero cgpa is low", func(s *contracts.Student) { s.CGPA = contracts.Ptr(0.0) }, AreaAcademic},
		{"low attendance", func(s *contracts.Student) { s.AttendancePercentage = contracts.Ptr(70.0) }, AreaAttendance},
		{"low engagement", func(s *contracts.Student) { s.BotEngagementScore = contracts.Ptr(39.0) }, AreaAttendance},
		{"nothing set", nil, AreaGeneral},
		{"healthy", func(s *contracts.Student) {
			s.CGPA = contracts.Ptr(8.0)
			s.AttendancePercentage = contracts.Ptr(90.0)
			s.Backlogs = contracts.Ptr(1)
		}, AreaGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(student(1, tt.mutate)))
		})
	}
}

func TestSpecializationKey(t *testing.T) {
	assert.Equal(t, AreaGeneral, SpecializationKey(""))
	assert.Equal(t, AreaGeneral, SpecializationKey("   "))
	assert.Equal(t, AreaFinancial, SpecializationKey(" FINANCIAL "))
	assert.Equal(t, Area("mental"), SpecializationKey("Mental"))
}

func TestCounselorIDs(t *testing.T) {
	a := Assignment{3: nil, 1: nil, 2: nil}
	assert.Equal(t, []int64{1, 2, 3}, a.CounselorIDs())
}
