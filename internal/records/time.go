package records

import "time"

// TimeRecord is the calendar breakdown of a song play timestamp.
type TimeRecord struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   string
}

// NewTimeRecord derives a TimeRecord from t, evaluated in UTC. Week is the
// ISO-8601 week number, so early January days may belong to the previous
// year's last week.
func NewTimeRecord(t time.Time) TimeRecord {
	t = t.UTC()
	_, week := t.ISOWeek()
	return TimeRecord{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   t.Weekday().String(),
	}
}
