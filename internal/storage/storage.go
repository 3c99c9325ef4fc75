package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"studienplaner/internal/calendar"
	"studienplaner/internal/models"
	"studienplaner/internal/store"

	_ "modernc.org/sqlite"
)

// Storage definiert das Interface für Datenpersistenz
type Storage interface {
	SaveSnapshot(ctx context.Context, snap store.Snapshot) error
	LoadSnapshot(ctx context.Context) (store.Snapshot, error)
	Close() error
}

// SQLiteStorage implementiert Storage mit SQLite
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage erstellt eine neue SQLite-Storage-Instanz
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("datenbankpfad fehlt")
	}
	db, err := sql.Open("sqlite", filepath.Clean(dbPath)+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// ein Schreiber reicht, SQLite serialisiert ohnehin
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		professor TEXT,
		category TEXT,
		color_hex TEXT,
		icon TEXT,
		tags TEXT
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		details TEXT,
		subject_id TEXT NOT NULL,
		due_date INTEGER,
		priority TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'pending',
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		subject_id TEXT NOT NULL,
		task_id TEXT,
		planned_start INTEGER NOT NULL,
		planned_ms INTEGER NOT NULL,
		actual_start INTEGER,
		actual_end INTEGER,
		technique TEXT NOT NULL DEFAULT 'pomodoro',
		notes TEXT,
		productivity_score INTEGER,
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS exam_grades (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		subject_id TEXT NOT NULL,
		title TEXT NOT NULL,
		date INTEGER NOT NULL,
		score REAL NOT NULL,
		max_score REAL NOT NULL,
		notes TEXT,
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		target_value REAL NOT NULL,
		period_start INTEGER NOT NULL,
		period_end INTEGER NOT NULL,
		progress_value REAL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_subject ON tasks(subject_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_subject ON study_sessions(subject_id);
	CREATE INDEX IF NOT EXISTS idx_grades_subject ON exam_grades(subject_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot ersetzt den gespeicherten Stand in einer Transaktion
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap store.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Kindtabellen zuerst
	for _, table := range []string{"study_sessions", "tasks", "exam_grades", "goals", "subjects"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err = saveSubjects(ctx, tx, snap.Subjects); err != nil {
		return err
	}
	if err = saveTasks(ctx, tx, snap.Tasks); err != nil {
		return err
	}
	if err = saveSessions(ctx, tx, snap.Sessions); err != nil {
		return err
	}
	if err = saveGrades(ctx, tx, snap.Grades); err != nil {
		return err
	}
	if err = saveGoals(ctx, tx, snap.Goals); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadSnapshot liest den gespeicherten Stand in Einfügereihenfolge
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot
	var err error

	if snap.Subjects, err = s.loadSubjects(ctx); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Tasks, err = s.loadTasks(ctx); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Sessions, err = s.loadSessions(ctx); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Grades, err = s.loadGrades(ctx); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Goals, err = s.loadGoals(ctx); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// Fächer

func saveSubjects(ctx context.Context, tx *sql.Tx, subjects []models.Subject) error {
	for i, subject := range subjects {
		tags, err := json.Marshal(subject.Tags)
		if err != nil {
			return fmt.Errorf("encode tags %s: %w", subject.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO subjects (id, position, name, professor, category, color_hex, icon, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, subject.ID, i, subject.Name, subject.Professor, subject.Category, subject.ColorHex, subject.Icon, string(tags))
		if err != nil {
			return fmt.Errorf("save subject %s: %w", subject.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) loadSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, professor, category, color_hex, icon, tags
		FROM subjects ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		var subject models.Subject
		var professor, category, color, icon, tags sql.NullString
		if err := rows.Scan(&subject.ID, &subject.Name, &professor, &category, &color, &icon, &tags); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subject.Professor = professor.String
		subject.Category = category.String
		subject.ColorHex = color.String
		subject.Icon = icon.String
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &subject.Tags); err != nil {
				return nil, fmt.Errorf("decode tags %s: %w", subject.ID, err)
			}
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

// Aufgaben

func saveTasks(ctx context.Context, tx *sql.Tx, tasks []models.Task) error {
	for i, task := range tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO tasks (id, position, title, details, subject_id, due_date, priority, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, task.ID, i, task.Title, task.Details, task.SubjectID, nullMillis(task.DueDate), string(task.Priority), string(task.Status))
		if err != nil {
			return fmt.Errorf("save task %s: %w", task.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) loadTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, details, subject_id, due_date, priority, status
		FROM tasks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		var details sql.NullString
		var due sql.NullInt64
		var priority, status string
		if err := rows.Scan(&task.ID, &task.Title, &details, &task.SubjectID, &due, &priority, &status); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		task.Details = details.String
		task.DueDate = timeFromNull(due)
		task.Priority = models.TaskPriority(priority)
		task.Status = models.TaskStatus(status)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Sitzungen

func saveSessions(ctx context.Context, tx *sql.Tx, sessions []models.StudySession) error {
	for i, session := range sessions {
		var taskID sql.NullString
		if session.TaskID != "" {
			taskID = sql.NullString{String: session.TaskID, Valid: true}
		}
		var score sql.NullInt64
		if session.ProductivityScore != nil {
			score = sql.NullInt64{Int64: int64(*session.ProductivityScore), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO study_sessions (id, position, subject_id, task_id, planned_start, planned_ms,
				actual_start, actual_end, technique, notes, productivity_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, session.ID, i, session.SubjectID, taskID, toMillis(session.PlannedStart), session.PlannedDuration.Milliseconds(),
			nullMillis(session.ActualStart), nullMillis(session.ActualEnd), string(session.Technique), session.Notes, score)
		if err != nil {
			return fmt.Errorf("save session %s: %w", session.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) loadSessions(ctx context.Context) ([]models.StudySession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, task_id, planned_start, planned_ms, actual_start, actual_end,
			technique, notes, productivity_score
		FROM study_sessions ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		var session models.StudySession
		var taskID, notes sql.NullString
		var plannedStart, plannedMillis int64
		var actualStart, actualEnd, score sql.NullInt64
		var technique string
		if err := rows.Scan(&session.ID, &session.SubjectID, &taskID, &plannedStart, &plannedMillis,
			&actualStart, &actualEnd, &technique, &notes, &score); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session.TaskID = taskID.String
		session.PlannedStart = fromMillis(plannedStart)
		session.PlannedDuration = time.Duration(plannedMillis) * time.Millisecond
		session.ActualStart = timeFromNull(actualStart)
		session.ActualEnd = timeFromNull(actualEnd)
		session.Technique = models.Technique(technique)
		session.Notes = notes.String
		if score.Valid {
			v := int(score.Int64)
			session.ProductivityScore = &v
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Noten

func saveGrades(ctx context.Context, tx *sql.Tx, grades []models.ExamGrade) error {
	for i, grade := range grades {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO exam_grades (id, position, subject_id, title, date, score, max_score, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, grade.ID, i, grade.SubjectID, grade.Title, toMillis(grade.Date), grade.Score, grade.MaxScore, grade.Notes)
		if err != nil {
			return fmt.Errorf("save grade %s: %w", grade.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) loadGrades(ctx context.Context) ([]models.ExamGrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, title, date, score, max_score, notes
		FROM exam_grades ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query grades: %w", err)
	}
	defer rows.Close()

	grades := []models.ExamGrade{}
	for rows.Next() {
		var grade models.ExamGrade
		var date int64
		var notes sql.NullString
		if err := rows.Scan(&grade.ID, &grade.SubjectID, &grade.Title, &date, &grade.Score, &grade.MaxScore, &notes); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grade.Date = fromMillis(date)
		grade.Notes = notes.String
		grades = append(grades, grade)
	}
	return grades, rows.Err()
}

// Ziele

func saveGoals(ctx context.Context, tx *sql.Tx, goals []models.Goal) error {
	for i, goal := range goals {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO goals (id, position, type, target_value, period_start, period_end, progress_value)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, goal.ID, i, string(goal.Type), goal.TargetValue, toMillis(goal.Period.Start), toMillis(goal.Period.End), goal.ProgressValue)
		if err != nil {
			return fmt.Errorf("save goal %s: %w", goal.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) loadGoals(ctx context.Context) ([]models.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, target_value, period_start, period_end, progress_value
		FROM goals ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		var goal models.Goal
		var goalType string
		var start, end int64
		var progress sql.NullFloat64
		if err := rows.Scan(&goal.ID, &goalType, &goal.TargetValue, &start, &end, &progress); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goal.Type = models.GoalType(goalType)
		goal.Period = calendar.Interval{Start: fromMillis(start), End: fromMillis(end)}
		goal.ProgressValue = progress.Float64
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// Zeitwerte liegen als Unix-Millisekunden in UTC vor

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
