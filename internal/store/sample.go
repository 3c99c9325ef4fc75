package store

import (
	"fmt"
	"time"

	"studienplaner/internal/calendar"
	"studienplaner/internal/models"
)

// SeedSample füllt einen leeren Store mit Beispieldaten relativ zur Store-Uhr
func SeedSample(s *Store) error {
	now := s.clock.Now()
	day := 24 * time.Hour

	subjects := []models.Subject{
		{Name: "Anatomie", Category: "Grundlagen", ColorHex: "#7B1FA2", Icon: "figure.stand"},
		{Name: "Physiologie", Category: "Grundlagen", ColorHex: "#1E88E5", Icon: "waveform.path.ecg"},
		{Name: "Pathologie", Category: "Klinik", ColorHex: "#43A047", Icon: "bandage"},
		{Name: "Pharmakologie", Category: "Klinik", ColorHex: "#F4511E", Icon: "pills"},
	}
	for i := range subjects {
		added, err := s.AddSubject(subjects[i])
		if err != nil {
			return fmt.Errorf("beispielfach %s: %w", subjects[i].Name, err)
		}
		subjects[i] = added
	}

	due := func(days int) *time.Time {
		t := now.AddDate(0, 0, days)
		return &t
	}
	tasks := []models.Task{
		{
			Title:     "Herz-Kreislauf-System wiederholen",
			Details:   "Zusammenfassung Kapitel 5 und Karteikarten",
			SubjectID: subjects[1].ID,
			DueDate:   due(1),
			Priority:  models.PriorityHigh,
		},
		{
			Title:     "Mindmap Hirnnerven",
			Details:   "Schwerpunkt Nervenpaare",
			SubjectID: subjects[0].ID,
			DueDate:   due(2),
			Priority:  models.PriorityMedium,
		},
		{
			Title:     "Fragen zu Antibiotika",
			Details:   "Block mit 40 Fragen",
			SubjectID: subjects[3].ID,
			DueDate:   due(3),
			Priority:  models.PriorityHigh,
		},
	}
	for i := range tasks {
		added, err := s.AddTask(tasks[i])
		if err != nil {
			return fmt.Errorf("beispielaufgabe %s: %w", tasks[i].Title, err)
		}
		tasks[i] = added
	}

	score := 8
	done := models.StudySession{
		SubjectID:         subjects[0].ID,
		TaskID:            tasks[0].ID,
		PlannedStart:      now,
		PlannedDuration:   time.Hour,
		Technique:         models.TechniquePomodoro,
		Notes:             "Gut behalten, morgen Karteikarten wiederholen",
		ProductivityScore: &score,
	}
	done.Finish(now, now.Add(55*time.Minute))

	sessions := []models.StudySession{
		done,
		{
			SubjectID:       subjects[1].ID,
			TaskID:          tasks[1].ID,
			PlannedStart:    now.Add(5 * time.Hour),
			PlannedDuration: 90 * time.Minute,
			Technique:       models.TechniqueDeepFocus,
		},
		{
			SubjectID:       subjects[2].ID,
			PlannedStart:    now.Add(day),
			PlannedDuration: 2 * time.Hour,
			Technique:       models.TechniqueSpacedRepetition,
			Notes:           "Vorbereitung praktische Prüfung",
		},
	}
	for _, session := range sessions {
		if _, err := s.AddSession(session); err != nil {
			return fmt.Errorf("beispieleinheit: %w", err)
		}
	}

	grades := []models.ExamGrade{
		{SubjectID: subjects[0].ID, Title: "Praktische Prüfung Anatomie", Date: now.Add(-7 * day), Score: 8.7, MaxScore: 10},
		{SubjectID: subjects[1].ID, Title: "Probeklausur Kardiologie", Date: now.Add(-14 * day), Score: 36, MaxScore: 40},
		{SubjectID: subjects[2].ID, Title: "OSCE Pathologie", Date: now.Add(-30 * day), Score: 82, MaxScore: 100},
	}
	for _, grade := range grades {
		if _, err := s.AddGrade(grade); err != nil {
			return fmt.Errorf("beispielnote %s: %w", grade.Title, err)
		}
	}

	week := calendar.WeekOf(now)
	goals := []models.Goal{
		{Type: models.GoalHoursPerWeek, TargetValue: 25, Period: week, ProgressValue: 12},
		{Type: models.GoalTasksCompleted, TargetValue: 10, Period: week, ProgressValue: 4},
		{Type: models.GoalAverageGrade, TargetValue: 85, Period: calendar.Interval{Start: now.Add(-30 * day), End: now}, ProgressValue: 78},
	}
	for _, goal := range goals {
		if _, err := s.AddGoal(goal); err != nil {
			return fmt.Errorf("beispielziel %s: %w", goal.Type, err)
		}
	}
	return nil
}
