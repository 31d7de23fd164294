package repository

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoStudents(t *testing.T) {
	students := DemoStudents(rand.New(rand.NewSource(7)), 200)
	require.Len(t, students, 200)
	assert.Equal(t, "S001", students[0].StudentID)
	assert.Equal(t, "S200", students[199].StudentID)

	departments := map[string]bool{"CSE": true, "IT": true, "ECE": true, "EEE": true, "ME": true, "CE": true}
	for _, s := range students {
		assert.True(t, departments[s.Department], s.Department)
		assert.Contains(t, s.Email, "@example.com")

		assert.GreaterOrEqual(t, *s.AttendancePercentage, 40.0)
		assert.LessOrEqual(t, *s.AttendancePercentage, 95.0)
		assert.GreaterOrEqual(t, *s.CGPA, 4.5)
		assert.LessOrEqual(t, *s.CGPA, 9.5)
		assert.Contains(t, []int{0, 1, 2, 3, 4}, *s.Backlogs)
		assert.GreaterOrEqual(t, *s.Semester, 1)
		assert.LessOrEqual(t, *s.Semester, 8)
		assert.LessOrEqual(t, *s.CounsellingSessions, 4)

		if *s.FeesPending {
			assert.Contains(t, []float64{5000, 8000, 12000, 15000, 20000}, *s.FeesAmountDue)
		} else {
			assert.Zero(t, *s.FeesAmountDue)
		}
	}
}

func TestDemoStudentsDeterministic(t *testing.T) {
	a := DemoStudents(rand.New(rand.NewSource(1)), 20)
	b := DemoStudents(rand.New(rand.NewSource(1)), 20)
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.Equal(t, *a[i].CGPA, *b[i].CGPA)
	}
}

func TestDemoCounselorsCoverAreas(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range DemoCounselors() {
		assert.True(t, c.Active)
		seen[c.Specialization] = true
	}
	assert.Len(t, seen, 4)
}
