package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// StudentRepository implements contracts.StudentRepository on PostgreSQL
// ⭐ SSOT: student rows are read and written here only
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a student repository
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `
	id, student_id, name, email, department, telegram_chat_id,
	attendance_percentage, cgpa, backlogs, fees_pending, fees_amount_due,
	quiz_score_avg, bot_engagement_score, counselling_sessions, semester,
	baseline_risk, final_risk, ml_risk_score, dropout_probability, cluster_id, stage,
	created_at, last_risk_update`

func scanStudent(row pgx.Row) (*contracts.Student, error) {
	var (
		s                   contracts.Student
		baseline, finalRisk string
		stage               int
	)
	err := row.Scan(
		&s.ID, &s.StudentID, &s.Name, &s.Email, &s.Department, &s.TelegramChatID,
		&s.AttendancePercentage, &s.CGPA, &s.Backlogs, &s.FeesPending, &s.FeesAmountDue,
		&s.QuizScoreAvg, &s.BotEngagementScore, &s.CounsellingSessions, &s.Semester,
		&baseline, &finalRisk, &s.MLRiskScore, &s.DropoutProbability, &s.ClusterID, &stage,
		&s.CreatedAt, &s.LastRiskUpdate,
	)
	if err != nil {
		return nil, err
	}
	s.BaselineRisk = contracts.RiskLevel(baseline)
	s.FinalRisk = contracts.RiskLevel(finalRisk)
	s.Stage = contracts.Stage(stage)
	return &s, nil
}

// List returns students matching the filter ordered by student_id
func (r *StudentRepository) List(ctx context.Context, filter contracts.StudentFilter) ([]*contracts.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Department != "" {
		where = append(where, "department = "+arg(filter.Department))
	}
	if filter.FinalRisk != "" {
		where = append(where, "final_risk = "+arg(string(filter.FinalRisk)))
	}
	if filter.ClusterID != nil {
		where = append(where, "cluster_id = "+arg(*filter.ClusterID))
	}
	if filter.Stage != 0 {
		where = append(where, "stage = "+arg(int(filter.Stage)))
	}

	query := "SELECT " + studentColumns + " FROM students"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY student_id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []*contracts.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetByStudentID loads one student by its external identifier
func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (*contracts.Student, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+studentColumns+" FROM students WHERE student_id = $1", studentID)
	s, err := scanStudent(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	return s, err
}

// Create inserts a new student and fills its generated id
func (r *StudentRepository) Create(ctx context.Context, s *contracts.Student) error {
	query := `
		INSERT INTO students (
			student_id, name, email, department, telegram_chat_id,
			attendance_percentage, cgpa, backlogs, fees_pending, fees_amount_due,
			quiz_score_avg, bot_engagement_score, counselling_sessions, semester,
			baseline_risk, final_risk, ml_risk_score, dropout_probability, cluster_id, stage,
			last_risk_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		s.StudentID, s.Name, s.Email, s.Department, s.TelegramChatID,
		s.AttendancePercentage, s.CGPA, s.Backlogs, s.FeesPending, s.FeesAmountDue,
		s.QuizScoreAvg, s.BotEngagementScore, s.CounsellingSessions, s.Semester,
		riskOrGreen(s.BaselineRisk), riskOrGreen(s.FinalRisk), s.MLRiskScore, s.DropoutProbability,
		s.ClusterID, stageOrMonitoring(s.Stage), s.LastRiskUpdate,
	).Scan(&s.ID, &s.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("student %s: %w", s.StudentID, ErrAlreadyExists)
	}
	return err
}

// Update writes both the attribute snapshot and the assessment
func (r *StudentRepository) Update(ctx context.Context, s *contracts.Student) error {
	query := `
		UPDATE students SET
			name = $2, email = $3, department = $4,
			attendance_percentage = $5, cgpa = $6, backlogs = $7, fees_pending = $8,
			fees_amount_due = $9, quiz_score_avg = $10, bot_engagement_score = $11,
			counselling_sessions = $12, semester = $13,
			baseline_risk = $14, final_risk = $15, ml_risk_score = $16,
			dropout_probability = $17, cluster_id = $18, stage = $19, last_risk_update = $20
		WHERE student_id = $1`

	tag, err := r.pool.Exec(ctx, query,
		s.StudentID, s.Name, s.Email, s.Department,
		s.AttendancePercentage, s.CGPA, s.Backlogs, s.FeesPending,
		s.FeesAmountDue, s.QuizScoreAvg, s.BotEngagementScore,
		s.CounsellingSessions, s.Semester,
		riskOrGreen(s.BaselineRisk), riskOrGreen(s.FinalRisk), s.MLRiskScore,
		s.DropoutProbability, s.ClusterID, stageOrMonitoring(s.Stage), s.LastRiskUpdate,
	)
	if err != nil {
		return fmt.Errorf("update student %s: %w", s.StudentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", s.StudentID, ErrNotFound)
	}
	return nil
}

const saveAssessmentQuery = `
	UPDATE students SET
		baseline_risk = $2, final_risk = $3, ml_risk_score = $4,
		dropout_probability = $5, cluster_id = $6, stage = $7, last_risk_update = $8
	WHERE student_id = $1`

func assessmentArgs(s *contracts.Student) []interface{} {
	return []interface{}{
		s.StudentID, riskOrGreen(s.BaselineRisk), riskOrGreen(s.FinalRisk), s.MLRiskScore,
		s.DropoutProbability, s.ClusterID, stageOrMonitoring(s.Stage), s.LastRiskUpdate,
	}
}

// SaveAssessment writes only the risk fields
func (r *StudentRepository) SaveAssessment(ctx context.Context, s *contracts.Student) error {
	tag, err := r.pool.Exec(ctx, saveAssessmentQuery, assessmentArgs(s)...)
	if err != nil {
		return fmt.Errorf("save assessment %s: %w", s.StudentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", s.StudentID, ErrNotFound)
	}
	return nil
}

// SaveAssessments writes many assessments in one round trip
func (r *StudentRepository) SaveAssessments(ctx context.Context, students []*contracts.Student) error {
	if len(students) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range students {
		batch.Queue(saveAssessmentQuery, assessmentArgs(s)...)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, s := range students {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save assessment %s: %w", s.StudentID, err)
		}
	}
	return nil
}

// SaveAll upserts many students in one batch (demo seeding)
func (r *StudentRepository) SaveAll(ctx context.Context, students []*contracts.Student) error {
	if len(students) == 0 {
		return nil
	}

	query := `
		INSERT INTO students (
			student_id, name, email, department,
			attendance_percentage, cgpa, backlogs, fees_pending, fees_amount_due,
			quiz_score_avg, bot_engagement_score, counselling_sessions, semester,
			baseline_risk, final_risk, ml_risk_score, dropout_probability, cluster_id, stage,
			last_risk_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (student_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			department = EXCLUDED.department,
			attendance_percentage = EXCLUDED.attendance_percentage,
			cgpa = EXCLUDED.cgpa,
			backlogs = EXCLUDED.backlogs,
			fees_pending = EXCLUDED.fees_pending,
			fees_amount_due = EXCLUDED.fees_amount_due,
			quiz_score_avg = EXCLUDED.quiz_score_avg,
			bot_engagement_score = EXCLUDED.bot_engagement_score,
			counselling_sessions = EXCLUDED.counselling_sessions,
			semester = EXCLUDED.semester,
			baseline_risk = EXCLUDED.baseline_risk,
			final_risk = EXCLUDED.final_risk,
			ml_risk_score = EXCLUDED.ml_risk_score,
			dropout_probability = EXCLUDED.dropout_probability,
			cluster_id = EXCLUDED.cluster_id,
			stage = EXCLUDED.stage,
			last_risk_update = EXCLUDED.last_risk_update`

	batch := &pgx.Batch{}
	for _, s := range students {
		batch.Queue(query,
			s.StudentID, s.Name, s.Email, s.Department,
			s.AttendancePercentage, s.CGPA, s.Backlogs, s.FeesPending, s.FeesAmountDue,
			s.QuizScoreAvg, s.BotEngagementScore, s.CounsellingSessions, s.Semester,
			riskOrGreen(s.BaselineRisk), riskOrGreen(s.FinalRisk), s.MLRiskScore, s.DropoutProbability,
			s.ClusterID, stageOrMonitoring(s.Stage), s.LastRiskUpdate,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, s := range students {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert student %s: %w", s.StudentID, err)
		}
	}
	return nil
}

// LinkChat stores the chat id a student registered from
func (r *StudentRepository) LinkChat(ctx context.Context, studentID, chatID string) error {
	tag, err := r.pool.Exec(ctx, "UPDATE students SET telegram_chat_id = $2 WHERE student_id = $1", studentID, chatID)
	if err != nil {
		return fmt.Errorf("link chat %s: %w", studentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	return nil
}

func riskOrGreen(level contracts.RiskLevel) string {
	if !level.Valid() {
		return string(contracts.RiskGreen)
	}
	return string(level)
}

func stageOrMonitoring(stage contracts.Stage) int {
	if stage < contracts.StageMonitoring || stage > contracts.StageIntensive {
		return int(contracts.StageMonitoring)
	}
	return int(stage)
}
