package zoom

// Action identifiers declared in the plugin manifest
const (
	MuteToggle  = "com.lostdomain.zoom.mutetoggle"
	VideoToggle = "com.lostdomain.zoom.videotoggle"
	ShareToggle = "com.lostdomain.zoom.sharetoggle"
	Focus       = "com.lostdomain.zoom.focus"
	Leave       = "com.lostdomain.zoom.leave"
)

// ToggleActions are the actions whose buttons mirror a Zoom state
var ToggleActions = []string{MuteToggle, VideoToggle, ShareToggle}

// IsToggle reports whether action has a two-state button
func IsToggle(action string) bool {
	switch action {
	case MuteToggle, VideoToggle, ShareToggle:
		return true
	}
	return false
}

// Commands holds the external command bound to each action
type Commands struct {
	Status string
	Mute   string
	Video  string
	Share  string
	Focus  string
	Leave  string
}

// For returns the control command for action, or "" if none is bound
func (c Commands) For(action string) string {
	switch action {
	case MuteToggle:
		return c.Mute
	case VideoToggle:
		return c.Video
	case ShareToggle:
		return c.Share
	case Focus:
		return c.Focus
	case Leave:
		return c.Leave
	default:
		return ""
	}
}
