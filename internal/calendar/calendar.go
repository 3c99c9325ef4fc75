// Package calendar bündelt Uhr, Tagesgrenzen und ISO-Wochen für den Studienplaner.
package calendar

import "time"

// Clock liefert die aktuelle Zeit
type Clock interface {
	Now() time.Time
}

// SystemClock liest die Systemzeit in der konfigurierten Zeitzone
type SystemClock struct {
	Location *time.Location
}

// Now gibt die aktuelle Zeit zurück
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock steht still, für Tests
type FixedClock struct {
	T time.Time
}

// Now gibt den festen Zeitpunkt zurück
func (c FixedClock) Now() time.Time { return c.T }

// ClockFunc macht eine Funktion zur Clock
type ClockFunc func() time.Time

// Now ruft die Funktion auf
func (f ClockFunc) Now() time.Time { return f() }

// Interval ist ein halboffenes Zeitintervall [Start, End)
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains prüft, ob t im Intervall liegt
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// IsZero meldet ein nicht gesetztes Intervall
func (i Interval) IsZero() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

// Duration gibt die Länge des Intervalls zurück
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// StartOfDay schneidet t auf Mitternacht in t's Zeitzone ab
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay prüft, ob b auf denselben Kalendertag wie a fällt (in a's Zeitzone)
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// WeekOf liefert die ISO-Woche (Montag 00:00 bis Montag 00:00) um t
func WeekOf(t time.Time) Interval {
	start := StartOfDay(t)
	// Montag = 0 ... Sonntag = 6
	offset := (int(start.Weekday()) + 6) % 7
	start = start.AddDate(0, 0, -offset)
	return Interval{Start: start, End: start.AddDate(0, 0, 7)}
}

// ThisWeek liefert die aktuelle ISO-Woche laut Uhr
func ThisWeek(c Clock) Interval {
	return WeekOf(c.Now())
}
