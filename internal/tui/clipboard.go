package tui

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

func readClipboard() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return runClipboardReadCmd("pbpaste", nil)
	case "windows":
		return runClipboardReadCmd("powershell", []string{"-NoProfile", "-Command", "Get-Clipboard"})
	default:
		// Prefer Wayland if available, then X11 fallbacks.
		if out, err := runClipboardReadCmd("wl-paste", []string{"--no-newline"}); err == nil {
			return out, nil
		}
		if out, err := runClipboardReadCmd("xclip", []string{"-selection", "clipboard", "-o"}); err == nil {
			return out, nil
		}
		return runClipboardReadCmd("xsel", []string{"--clipboard", "--output"})
	}
}

func runClipboardReadCmd(name string, args []string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", err
	}
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", errors.New(name + ": " + err.Error())
	}
	return strings.ReplaceAll(string(out), "\r\n", "\n"), nil
}
