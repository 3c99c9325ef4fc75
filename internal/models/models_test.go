package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studienplaner/internal/calendar"
)

func TestExamGrade_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		maxScore float64
		want     float64
	}{
		{name: "standard", score: 8.7, maxScore: 10, want: 87},
		{name: "andere skala", score: 36, maxScore: 40, want: 90},
		{name: "max null", score: 5, maxScore: 0, want: 0},
		{name: "max negativ", score: 5, maxScore: -10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ExamGrade{Score: tt.score, MaxScore: tt.maxScore}
			assert.InDelta(t, tt.want, g.Percentage(), 1e-9)
		})
	}
}

func TestNewExamGrade_DefaultMaxScore(t *testing.T) {
	g := NewExamGrade("s1", "Klausur", time.Now(), 7)
	assert.Equal(t, DefaultMaxScore, g.MaxScore)
	assert.InDelta(t, 70, g.Percentage(), 1e-9)
}

func TestGoal_ProgressRatio(t *testing.T) {
	tests := []struct {
		name     string
		target   float64
		progress float64
		want     float64
	}{
		{name: "halb", target: 10, progress: 5, want: 0.5},
		{name: "übererfüllt", target: 10, progress: 25, want: 1},
		{name: "ziel null", target: 0, progress: 5, want: 0},
		{name: "ziel negativ", target: -1, progress: 5, want: 0},
		{name: "fortschritt negativ", target: 10, progress: -3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Goal{TargetValue: tt.target, ProgressValue: tt.progress}
			assert.Equal(t, tt.want, g.ProgressRatio())
		})
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(math.Inf(1)))
	assert.Equal(t, 0.25, Clamp01(0.25))
}

func TestStudySession_Durations(t *testing.T) {
	start := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	s := NewStudySession("s1", start, time.Hour)

	_, ok := s.ActualDuration()
	assert.False(t, ok)
	assert.False(t, s.Completed())
	assert.Equal(t, time.Hour, s.EffectiveDuration())
	assert.Equal(t, TechniquePomodoro, s.Technique)

	s.Finish(start, start.Add(50*time.Minute))
	d, ok := s.ActualDuration()
	require.True(t, ok)
	assert.Equal(t, 50*time.Minute, d)
	assert.True(t, s.Completed())
	assert.Equal(t, 50*time.Minute, s.EffectiveDuration())
}

func TestStudySession_JSONUsesSeconds(t *testing.T) {
	start := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	s := NewStudySession("s1", start, 90*time.Minute)
	s.ID = "sess-1"
	s.Finish(start, start.Add(3000*time.Second))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 5400.0, raw["planned_duration_seconds"])
	assert.Equal(t, 3000.0, raw["actual_duration_seconds"])

	var back StudySession
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.ID, back.ID)
	assert.Equal(t, 90*time.Minute, back.PlannedDuration)
	require.NotNil(t, back.ActualEnd)
	assert.True(t, back.ActualEnd.Equal(*s.ActualEnd))
}

func TestEnums(t *testing.T) {
	assert.True(t, PriorityHigh.IsValid())
	assert.False(t, TaskPriority("urgent").IsValid())
	assert.True(t, StatusInProgress.IsValid())
	assert.False(t, TaskStatus("").IsValid())
	assert.True(t, TechniqueSpacedRepetition.IsValid())
	assert.False(t, Technique("cramming").IsValid())
	assert.True(t, GoalAverageGrade.IsValid())
	assert.False(t, GoalType("streak").IsValid())

	assert.Equal(t, "Erledigt", StatusDone.Title())
	assert.Equal(t, "Stunden pro Woche", GoalHoursPerWeek.Title())
}

func TestNewGoalAndTask(t *testing.T) {
	week := calendar.WeekOf(time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC))
	g := NewGoal(GoalHoursPerWeek, 20, week)
	assert.Equal(t, week, g.Period)
	assert.Zero(t, g.ProgressValue)

	task := NewTask("Kapitel 5", "s1")
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.False(t, task.IsDone())
}
