package utils

import (
	"log"
	"time"
)

// TimeNowEastern returns the current time in the US market timezone.
func TimeNowEastern() time.Time {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return time.Now().In(loc)
}

// PrettyDate formats a time for notification messages.
func PrettyDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006 15:04")
}
