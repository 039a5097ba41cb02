package zoom

import (
	"log/slog"
	"strings"
)

// Markers the status command prints for the "on" side of each field
const (
	markerOpen         = "zoom:open"
	markerMuted        = "mute:muted"
	markerVideoStarted = "video:started"
	markerShareStarted = "share:started"
)

// Status is Zoom's state as read by one probe
type Status struct {
	Open  bool `json:"open"`
	Muted bool `json:"muted"`
	Video bool `json:"video"`
	Share bool `json:"share"`
}

// Parse extracts the status fields from raw probe output.
// Each field is an independent substring test; a missing marker reads
// as closed, unmuted, video stopped and share stopped.
func Parse(raw string) Status {
	s := Status{
		Open:  strings.Contains(raw, markerOpen),
		Muted: strings.Contains(raw, markerMuted),
		Video: strings.Contains(raw, markerVideoStarted),
		Share: strings.Contains(raw, markerShareStarted),
	}

	slog.Debug("Parsed Zoom status",
		"open", s.Open,
		"muted", s.Muted,
		"video", s.Video,
		"share", s.Share,
	)

	return s
}

// State returns the host state index for a toggle action: 1 when
// unmuted, video started or share started, otherwise 0. ok is false for
// actions without a toggle state.
func (s Status) State(action string) (state int, ok bool) {
	switch action {
	case MuteToggle:
		return boolState(!s.Muted), true
	case VideoToggle:
		return boolState(s.Video), true
	case ShareToggle:
		return boolState(s.Share), true
	default:
		return 0, false
	}
}

func boolState(b bool) int {
	if b {
		return 1
	}
	return 0
}
