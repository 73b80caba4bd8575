package models

import "time"

// InspectionDraft is the single in-progress inspection a site may have at a
// time, keyed by site id and overwritten in place on every step advance. It
// is deleted the moment the corresponding completed log is persisted, or
// when the user discards it to start over.
type InspectionDraft struct {
	SiteID        string            `json:"site_id"`
	StepIndex     int               `json:"step_index"`
	Answers       map[string]Answer `json:"answers"`
	InspectorName string            `json:"inspector_name"`
	InspectorRole string            `json:"inspector_role,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
