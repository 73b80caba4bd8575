// Package models defines the site, inspection and draft types persisted by
// the local record store and mirrored to the cloud replica.
package models

import "time"

// Periodicity classifies how often a site must be inspected.
type Periodicity string

const (
	PeriodicityMonthly     Periodicity = "monthly"
	PeriodicityQuarterly   Periodicity = "quarterly"
	PeriodicityFourMonthly Periodicity = "four-monthly"
	PeriodicityAnnual      Periodicity = "annual"
)

// Months returns the inspection interval in months, or 0 for an unset or
// unknown periodicity.
func (p Periodicity) Months() int {
	switch p {
	case PeriodicityMonthly:
		return 1
	case PeriodicityQuarterly:
		return 3
	case PeriodicityFourMonthly:
		return 4
	case PeriodicityAnnual:
		return 12
	default:
		return 0
	}
}

// InspectionPoint is one yes/no question in a site's checklist. Answers copy
// point metadata by value at answer time, so later edits to a point never
// change historical reports.
type InspectionPoint struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Question         string `json:"question"`
	RequiresPhoto    bool   `json:"requires_photo"`
	PhotoInstruction string `json:"photo_instruction,omitempty"`
}

// Area is an ordered group of inspection points within a site's checklist.
type Area struct {
	Name   string            `json:"name"`
	Points []InspectionPoint `json:"points"`
}

// Site is a physical installation with a configured inspection checklist.
// The id is stable and caller-assigned. The local copy is authoritative
// until Synced is true; afterwards pulls may overwrite it.
type Site struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Areas            []Area      `json:"areas"`
	Periodicity      Periodicity `json:"periodicity,omitempty"`
	ContactPhone     string      `json:"contact_phone,omitempty"`
	LastReminderSent *time.Time  `json:"last_reminder_sent,omitempty"`
	Synced           bool        `json:"synced"`
}

// NextDue returns when the next inspection is due after the given last
// inspection date, and false when the site has no periodicity configured.
func (s *Site) NextDue(last time.Time) (time.Time, bool) {
	months := s.Periodicity.Months()
	if months == 0 {
		return time.Time{}, false
	}
	return last.AddDate(0, months, 0), true
}

// Point looks up a point definition by id across all areas.
func (s *Site) Point(pointID string) (InspectionPoint, string, bool) {
	for _, a := range s.Areas {
		for _, p := range a.Points {
			if p.ID == pointID {
				return p, a.Name, true
			}
		}
	}
	return InspectionPoint{}, "", false
}
