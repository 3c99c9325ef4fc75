package store

import (
	"fmt"

	"go.uber.org/zap"

	"studienplaner/internal/models"
)

// Snapshot ist eine vollständige Kopie aller fünf Sammlungen
type Snapshot struct {
	Subjects []models.Subject      `json:"subjects"`
	Tasks    []models.Task         `json:"tasks"`
	Sessions []models.StudySession `json:"sessions"`
	Grades   []models.ExamGrade    `json:"grades"`
	Goals    []models.Goal         `json:"goals"`
}

// IsEmpty meldet einen Snapshot ohne Einträge
func (snap Snapshot) IsEmpty() bool {
	return len(snap.Subjects) == 0 && len(snap.Tasks) == 0 && len(snap.Sessions) == 0 &&
		len(snap.Grades) == 0 && len(snap.Goals) == 0
}

// Snapshot kopiert den aktuellen Stand
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Subjects: make([]models.Subject, len(s.subjects)),
		Tasks:    s.filterTasks(func(models.Task) bool { return true }),
		Sessions: s.filterSessions(func(models.StudySession) bool { return true }),
		Grades:   append([]models.ExamGrade{}, s.grades...),
		Goals:    append([]models.Goal{}, s.goals...),
	}
	for i, subject := range s.subjects {
		snap.Subjects[i] = subject.Clone()
	}
	return snap
}

// Restore ersetzt den gesamten Inhalt durch snap. Doppelte IDs oder Verweise auf
// unbekannte Fächer/Aufgaben lassen den Store unverändert.
func (s *Store) Restore(snap Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	next := Snapshot{
		Subjects: make([]models.Subject, len(snap.Subjects)),
		Tasks:    make([]models.Task, len(snap.Tasks)),
		Sessions: make([]models.StudySession, len(snap.Sessions)),
		Grades:   append([]models.ExamGrade{}, snap.Grades...),
		Goals:    append([]models.Goal{}, snap.Goals...),
	}
	for i, v := range snap.Subjects {
		next.Subjects[i] = v.Clone()
	}
	for i, v := range snap.Tasks {
		next.Tasks[i] = v.Clone()
	}
	for i, v := range snap.Sessions {
		next.Sessions[i] = v.Clone()
	}

	s.mu.Lock()
	s.subjects = next.Subjects
	s.tasks = next.Tasks
	s.sessions = next.Sessions
	s.grades = next.Grades
	s.goals = next.Goals
	s.mu.Unlock()

	s.logger.Info("Datenstand wiederhergestellt",
		zap.Int("subjects", len(next.Subjects)),
		zap.Int("tasks", len(next.Tasks)),
		zap.Int("sessions", len(next.Sessions)),
		zap.Int("grades", len(next.Grades)),
		zap.Int("goals", len(next.Goals)))
	s.publish(ChangeRestored, EntityAll, "")
	return nil
}

func validateSnapshot(snap Snapshot) error {
	subjects := make(map[string]bool, len(snap.Subjects))
	for _, v := range snap.Subjects {
		if v.ID == "" || subjects[v.ID] {
			return fmt.Errorf("%w: Fach %q", ErrDuplicateID, v.ID)
		}
		subjects[v.ID] = true
	}

	tasks := make(map[string]bool, len(snap.Tasks))
	for _, v := range snap.Tasks {
		if v.ID == "" || tasks[v.ID] {
			return fmt.Errorf("%w: Aufgabe %q", ErrDuplicateID, v.ID)
		}
		if !subjects[v.SubjectID] {
			return fmt.Errorf("%w: Aufgabe %s verweist auf Fach %s", ErrUnknownReference, v.ID, v.SubjectID)
		}
		tasks[v.ID] = true
	}

	seen := make(map[string]bool, len(snap.Sessions))
	for _, v := range snap.Sessions {
		if v.ID == "" || seen[v.ID] {
			return fmt.Errorf("%w: Lerneinheit %q", ErrDuplicateID, v.ID)
		}
		if !subjects[v.SubjectID] {
			return fmt.Errorf("%w: Lerneinheit %s verweist auf Fach %s", ErrUnknownReference, v.ID, v.SubjectID)
		}
		if v.TaskID != "" && !tasks[v.TaskID] {
			return fmt.Errorf("%w: Lerneinheit %s verweist auf Aufgabe %s", ErrUnknownReference, v.ID, v.TaskID)
		}
		seen[v.ID] = true
	}

	seen = make(map[string]bool, len(snap.Grades))
	for _, v := range snap.Grades {
		if v.ID == "" || seen[v.ID] {
			return fmt.Errorf("%w: Note %q", ErrDuplicateID, v.ID)
		}
		if !subjects[v.SubjectID] {
			return fmt.Errorf("%w: Note %s verweist auf Fach %s", ErrUnknownReference, v.ID, v.SubjectID)
		}
		seen[v.ID] = true
	}

	seen = make(map[string]bool, len(snap.Goals))
	for _, v := range snap.Goals {
		if v.ID == "" || seen[v.ID] {
			return fmt.Errorf("%w: Ziel %q", ErrDuplicateID, v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}
