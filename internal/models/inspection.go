package models

import "time"

// LogStatus is the lifecycle state of an inspection log.
type LogStatus string

const (
	LogStatusDraft     LogStatus = "draft"
	LogStatusCompleted LogStatus = "completed"
)

// Answer records the response to one inspection point during one run.
// Point, question and area names are denormalized at answer time, never
// looked up later: historical reports must not change when the site
// configuration does.
type Answer struct {
	PointID   string    `json:"point_id"`
	PointName string    `json:"point_name"`
	Question  string    `json:"question"`
	AreaName  string    `json:"area_name"`
	Conform   bool      `json:"conform"`
	Photo     PhotoRef  `json:"photo,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InspectionLog is one inspection run of a site. Content becomes immutable
// once Status is completed and uploaded; later operations may only change
// sync metadata.
type InspectionLog struct {
	ID            string    `json:"id"`
	SiteID        string    `json:"site_id"`
	SiteName      string    `json:"site_name"`
	Date          time.Time `json:"date"`
	InspectorName string    `json:"inspector_name"`
	InspectorRole string    `json:"inspector_role,omitempty"`
	Answers       []Answer  `json:"answers"`
	Status        LogStatus `json:"status"`
	Synced        bool      `json:"synced"`
	PdfURL        string    `json:"pdf_url,omitempty"`
}

// Completed reports whether the log content is finalized.
func (l *InspectionLog) Completed() bool {
	return l.Status == LogStatusCompleted
}

// StripInlinePhotos clears every answer photo carried inline as a data URI
// and reports whether anything was removed. Used by the quota-exhaustion
// fallback to shrink already-synced records; references to the blob store or
// to uploaded URLs are untouched.
func (l *InspectionLog) StripInlinePhotos() bool {
	stripped := false
	for i := range l.Answers {
		if l.Answers[i].Photo.Kind() == PhotoInline {
			l.Answers[i].Photo = PhotoRef{}
			stripped = true
		}
	}
	return stripped
}

// LocalPhotoCount returns how many answers still reference the local blob
// store, i.e. photos awaiting promotion to cloud storage.
func (l *InspectionLog) LocalPhotoCount() int {
	n := 0
	for i := range l.Answers {
		if _, ok := l.Answers[i].Photo.BlobID(); ok {
			n++
		}
	}
	return n
}
