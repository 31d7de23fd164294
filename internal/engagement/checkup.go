package engagement

import (
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/model"
)

// Question is one prompt the bot sends a student
type Question struct {
	ActivityType string `json:"activity_type"`
	ActivityCode string `json:"activity_code"`
	Question     string `json:"question"`
	MinValue     int    `json:"min_value"`
	MaxValue     int    `json:"max_value"`
}

// Checkup is the set of questions for one student today
type Checkup struct {
	StudentID  string          `json:"student_id"`
	Stage      contracts.Stage `json:"stage"`
	ClusterID  *int            `json:"cluster_id"`
	Activities []Question      `json:"activities"`
}

var baseQuestions = []Question{
	{
		ActivityType: "mood",
		ActivityCode: "MOOD_1_5",
		Question:     "On a scale 1-5, how is your mood today? (1=Very bad, 5=Great)",
		MinValue:     1,
		MaxValue:     5,
	},
	{
		ActivityType: "study_hours",
		ActivityCode: "STUDY_HOURS_0_10",
		Question:     "How many hours did you study yesterday? (0-10)",
		MinValue:     0,
		MaxValue:     10,
	},
	{
		ActivityType: "stress",
		ActivityCode: "STRESS_1_5",
		Question:     "On a scale 1-5, how stressed do you feel about studies? (1=No stress, 5=Very high)",
		MinValue:     1,
		MaxValue:     5,
	},
}

var (
	doubtQuestion = Question{
		ActivityType: "doubt_clearing",
		ActivityCode: "DOUBT_0_1",
		Question:     "Do you have unresolved doubts in any subject? (0=No, 1=Yes)",
		MinValue:     0,
		MaxValue:     1,
	}
	financeQuestion = Question{
		ActivityType: "financial_worry",
		ActivityCode: "FIN_WORRY_1_5",
		Question:     "On a scale 1-5, how worried are you about fees/finances?",
		MinValue:     1,
		MaxValue:     5,
	}
	motivationQuestion = Question{
		ActivityType: "engagement",
		ActivityCode: "ENG_1_5",
		Question:     "On a scale 1-5, how motivated do you feel to attend classes today?",
		MinValue:     1,
		MaxValue:     5,
	}
)

// DailyCheckup returns the three common questions plus one chosen by cluster
func DailyCheckup(student *contracts.Student) Checkup {
	questions := make([]Question, 0, len(baseQuestions)+1)
	questions = append(questions, baseQuestions...)

	cluster := -1
	if student.ClusterID != nil {
		cluster = *student.ClusterID
	}
	switch cluster {
	case model.ClusterAcademic:
		questions = append(questions, doubtQuestion)
	case model.ClusterFinancial:
		questions = append(questions, financeQuestion)
	default:
		questions = append(questions, motivationQuestion)
	}

	return Checkup{
		StudentID:  student.StudentID,
		Stage:      student.Stage,
		ClusterID:  student.ClusterID,
		Activities: questions,
	}
}
