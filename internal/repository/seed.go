package repository

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// =============================================================================
// Demo data
// =============================================================================

var (
	demoDepartments = []string{"CSE", "IT", "ECE", "EEE", "ME", "CE"}
	demoFirstNames  = []string{
		"Aarav", "Diya", "Rohan", "Kriti", "Aditya", "Simran",
		"Manav", "Isha", "Neeraj", "Priya", "Rahul", "Sneha",
	}
	demoLastNames  = []string{"Mehta", "Sharma", "Verma", "Joshi", "Nair", "Kaur", "Rao", "Patel", "Singh", "Das"}
	demoBacklogs   = []int{0, 0, 0, 1, 2, 3, 4}
	demoFeeAmounts = []float64{5000, 8000, 12000, 15000, 20000}
)

// DemoStudents generates n unscored students with ids S001, S002, ...
func DemoStudents(rng *rand.Rand, n int) []*contracts.Student {
	students := make([]*contracts.Student, 0, n)
	for i := 1; i <= n; i++ {
		fn := demoFirstNames[rng.Intn(len(demoFirstNames))]
		ln := demoLastNames[rng.Intn(len(demoLastNames))]

		feesPending := rng.Intn(3) == 0
		feesDue := 0.0
		if feesPending {
			feesDue = demoFeeAmounts[rng.Intn(len(demoFeeAmounts))]
		}

		students = append(students, &contracts.Student{
			StudentID:  fmt.Sprintf("S%03d", i),
			Name:       fn + " " + ln,
			Email:      fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(fn), strings.ToLower(ln), i),
			Department: demoDepartments[rng.Intn(len(demoDepartments))],
			StudentSnapshot: contracts.StudentSnapshot{
				Semester:             contracts.Ptr(1 + rng.Intn(8)),
				AttendancePercentage: contracts.Ptr(round(40+rng.Float64()*55, 1)),
				CGPA:                 contracts.Ptr(round(4.5+rng.Float64()*5, 2)),
				Backlogs:             contracts.Ptr(demoBacklogs[rng.Intn(len(demoBacklogs))]),
				FeesPending:          contracts.Ptr(feesPending),
				FeesAmountDue:        contracts.Ptr(feesDue),
				QuizScoreAvg:         contracts.Ptr(round(40+rng.Float64()*50, 1)),
				BotEngagementScore:   contracts.Ptr(round(20+rng.Float64()*60, 1)),
				CounsellingSessions:  contracts.Ptr(rng.Intn(5)),
			},
			FinalRisk:    contracts.RiskGreen,
			BaselineRisk: contracts.RiskGreen,
			Stage:        contracts.StageMonitoring,
		})
	}
	return students
}

// DemoCounselors returns one active counselor per specialization area
func DemoCounselors() []*contracts.Counselor {
	return []*contracts.Counselor{
		{ID: 1, Username: "asharma", FullName: "Anita Sharma", Email: "anita.sharma@example.com", Specialization: "academic", Active: true},
		{ID: 2, Username: "rverma", FullName: "Rakesh Verma", Email: "rakesh.verma@example.com", Specialization: "financial", Active: true},
		{ID: 3, Username: "pnair", FullName: "Pooja Nair", Email: "pooja.nair@example.com", Specialization: "attendance", Active: true},
		{ID: 4, Username: "kdas", FullName: "Kunal Das", Email: "kunal.das@example.com", Specialization: "general", Active: true},
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
