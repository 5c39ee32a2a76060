package ui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// For a list of possible icons, see: https://specifications.freedesktop.org/icon-naming-spec/icon-naming-spec-latest.html
const (
	IconDialogError = "dialog-error"
	IconDialogInfo  = "dialog-information"
	IconDialogWarn  = "dialog-warning"

	UrgencyLow      = "low"
	UrgencyNormal   = "normal"
	UrgencyCritical = "critical"
)

func NotifyInfo(title, text string) {
	NotifySend(UrgencyLow, title, text, IconDialogInfo)
}

func NotifyWarn(title, text string) {
	NotifySend(UrgencyNormal, title, text, IconDialogWarn)
}

func NotifyError(title, text string) {
	NotifySend(UrgencyCritical, title, text, IconDialogError)
}

// NotifySend raises a desktop notification on the active display session.
// The daemon usually runs as root while the session belongs to a user, so
// notify-send is run through sudo as the session owner.
func NotifySend(urgency, title, text, icon string) {
	display, exists := os.LookupEnv("DISPLAY")
	if !exists {
		Warning("Cannot send notification, missing env variable 'DISPLAY'!")
		return
	}

	user, err := displayUser(display)
	if err != nil {
		Warning("Cannot send notification: %v", err)
		return
	}
	userId, err := lookupUserId(user)
	if err != nil {
		Warning("Cannot send notification: %v", err)
		return
	}

	cmd := exec.Command("sudo", "-u", user,
		"DISPLAY="+display,
		"DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/"+userId+"/bus",
		"notify-send",
		"-a", "fanctld",
		"-u", urgency,
		"-i", icon,
		title, text,
	)
	if err := cmd.Run(); err != nil {
		Error("Error sending notification: %v", err)
	}
}

// displayUser finds the user owning the session of the given display.
func displayUser(display string) (string, error) {
	output, err := exec.Command("who").Output()
	if err != nil {
		return "", fmt.Errorf("unable to list login sessions: %s", err.Error())
	}
	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, display) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("no login session owns display %s", display)
}

func lookupUserId(user string) (string, error) {
	output, err := exec.Command("id", "-u", user).Output()
	if err != nil {
		return "", fmt.Errorf("unable to resolve the id of user %s: %s", user, err.Error())
	}
	userId := strings.TrimSpace(string(output))
	if userId == "" {
		return "", fmt.Errorf("unable to resolve the id of user %s", user)
	}
	return userId, nil
}
