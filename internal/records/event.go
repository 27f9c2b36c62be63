package records

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// PageNextSong is the page value logged when a user starts playing a song.
const PageNextSong = "NextSong"

// UserID is a user identifier as it appears in the activity logs, where it
// is sometimes a number, sometimes a string, and blank for logged-out users.
type UserID string

// UnmarshalJSON accepts a JSON string, number or null.
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("userId must be a string or number: %w", err)
	}
	*u = UserID(n.String())
	return nil
}

// Int returns the numeric form of the identifier.
func (u UserID) Int() (int, error) {
	if u == "" {
		return 0, fmt.Errorf("user id is blank")
	}
	if id, err := strconv.Atoi(string(u)); err == nil {
		return id, nil
	}
	// Numeric exports sometimes carry ids as floats, e.g. 53.0.
	f, err := strconv.ParseFloat(string(u), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing user id %q: %w", string(u), err)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("parsing user id %q: not an integer", string(u))
	}
	return int(f), nil
}

// LogEvent is a single user activity event from the log dataset.
type LogEvent struct {
	Artist        string  `json:"artist"`
	Auth          string  `json:"auth"`
	FirstName     string  `json:"firstName"`
	Gender        string  `json:"gender"`
	ItemInSession int     `json:"itemInSession"`
	LastName      string  `json:"lastName"`
	Length        float64 `json:"length"`
	Level         string  `json:"level"`
	Location      string  `json:"location"`
	Method        string  `json:"method"`
	Page          string  `json:"page"`
	Registration  float64 `json:"registration"`
	SessionID     int     `json:"sessionId"`
	Song          string  `json:"song"`
	Status        int     `json:"status"`
	TS            int64   `json:"ts"`
	UserAgent     string  `json:"userAgent"`
	UserID        UserID  `json:"userId"`
}

// IsSongPlay reports whether the event records a song being played.
func (e *LogEvent) IsSongPlay() bool {
	return e.Page == PageNextSong
}

// Time returns the event timestamp in UTC.
func (e *LogEvent) Time() time.Time {
	return time.UnixMilli(e.TS).UTC()
}

// EventFunc receives each line of a log file. err is non-nil when the line
// could not be decoded, in which case ev is the zero value.
type EventFunc func(line int, ev LogEvent, err error)

// ScanEvents decodes newline-delimited events from r, calling fn for every
// non-blank line. Lines have no length limit. Decoding failures are passed to
// fn and scanning continues; only read failures are returned.
func ScanEvents(r io.Reader, fn EventFunc) error {
	reader := bufio.NewReader(r)

	line := 0
	for {
		data, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("reading events: %w", readErr)
		}
		if len(data) > 0 {
			line++
			if raw := bytes.TrimSpace(data); len(raw) > 0 {
				var ev LogEvent
				if err := json.Unmarshal(raw, &ev); err != nil {
					fn(line, LogEvent{}, fmt.Errorf("decoding line %d: %w", line, err))
				} else {
					fn(line, ev, nil)
				}
			}
		}
		if readErr != nil {
			return nil
		}
	}
}

// ScanEventFile opens path and scans it with ScanEvents.
func ScanEventFile(path string, fn EventFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	if err := ScanEvents(f, fn); err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	return nil
}
