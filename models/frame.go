package models

import "strings"

// Frame is one extracted image. IsLocked is computed when a job is
// projected for a caller and is never persisted.
type Frame struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	ImageURL  string `json:"imageUrl"`
	IsLocked  bool   `json:"isLocked"`
}

// DownloadName is the file name clients use when saving the frame,
// e.g. "00:01:05" becomes "frame_00-01-05.jpg".
func (f Frame) DownloadName() string {
	ts := strings.ReplaceAll(strings.TrimSpace(f.Timestamp), ":", "-")
	ts = strings.ReplaceAll(ts, " ", "_")
	if ts == "" {
		return "image.jpg"
	}
	return "frame_" + ts + ".jpg"
}
