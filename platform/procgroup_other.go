//go:build !darwin && !linux

package platform

import "os/exec"

// setProcessGroup keeps the default exec.CommandContext kill behaviour
func setProcessGroup(cmd *exec.Cmd) {}
