package store

import "errors"

var (
	// ErrNotFound meldet eine unbekannte ID bei Update oder Abfrage
	ErrNotFound = errors.New("nicht gefunden")
	// ErrUnknownReference meldet einen Verweis auf ein nicht vorhandenes Fach oder eine Aufgabe
	ErrUnknownReference = errors.New("unbekannte Referenz")
	// ErrInvalidEntity meldet fehlende Pflichtfelder oder unzulässige Werte
	ErrInvalidEntity = errors.New("ungültiger Eintrag")
	// ErrDuplicateID meldet eine bereits vergebene ID
	ErrDuplicateID = errors.New("ID bereits vergeben")
)
