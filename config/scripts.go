package config

// Default commands drive the zoom.us macOS client through System Events.
// The status command prints a single line such as
// "mute:muted,video:stopped,zoom:open,share:stopped".

const StatusScript = `osascript -e 'set zoomStatus to "closed"
set muteStatus to "muted"
set videoStatus to "stopped"
set shareStatus to "stopped"
tell application "System Events"
if exists (window 1 of process "zoom.us") then
set zoomStatus to "open"
end if
end tell
if (zoomStatus contains "open") then
tell application "System Events" to tell application process "zoom.us"
if exists (menu item "Mute audio" of menu 1 of menu bar item "Meeting" of menu bar 1) then
set muteStatus to "unmuted"
else
set muteStatus to "muted"
end if
if exists (menu item "Start Video" of menu 1 of menu bar item "Meeting" of menu bar 1) then
set videoStatus to "stopped"
else
set videoStatus to "started"
end if
if exists (menu item "Start Share" of menu 1 of menu bar item "Meeting" of menu bar 1) then
set shareStatus to "stopped"
else
set shareStatus to "started"
end if
end tell
end if
do shell script "echo mute:" & (muteStatus as text) & ",video:" & (videoStatus as text) & ",zoom:" & (zoomStatus as text) & ",share:" & (shareStatus as text)'`

const MuteScript = `osascript -e 'tell application "zoom.us"
tell application "System Events"
keystroke "a" using {shift down, command down}
end tell
end tell'`

const VideoScript = `osascript -e 'tell application "zoom.us"
tell application "System Events"
keystroke "v" using {shift down, command down}
end tell
end tell'`

const ShareScript = `osascript -e 'tell application "zoom.us"
tell application "System Events"
keystroke "s" using {shift down, command down}
end tell
end tell'`

const FocusScript = `osascript -e 'tell application "zoom.us"
activate
end tell'`

// LeaveScript closes the meeting window and confirms the dialog, which
// also picks "End Meeting for All" when hosting
const LeaveScript = `osascript -e 'tell application "zoom.us"
activate
tell application "System Events"
keystroke "w" using {command down}
end tell
tell application "System Events"
tell front window of (first application process whose frontmost is true)
click button 1
end tell
end tell
end tell'`
