package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"imgbundle/pkg/config"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	escape := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("imgbundle").Show($toast)
	`, escape.Replace(title), escape.Replace(message))

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

// Notifier sends desktop notifications about finished archives
type Notifier struct {
	sender     NotificationSender
	onComplete bool
	onError    bool
}

// NewNotifier picks the sender for the current platform. A disabled
// configuration yields a Notifier that does nothing.
func NewNotifier(cfg *config.NotificationConfig) *Notifier {
	if cfg == nil || !cfg.Enabled {
		return &Notifier{}
	}

	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return &Notifier{sender: sender, onComplete: cfg.OnComplete, onError: cfg.OnError}
}

// NewNotifierWithSender is used by tests and custom integrations
func NewNotifierWithSender(sender NotificationSender, onComplete, onError bool) *Notifier {
	return &Notifier{sender: sender, onComplete: onComplete, onError: onError}
}

// Complete announces a finished archive
func (n *Notifier) Complete(message string) {
	if n.sender != nil && n.onComplete {
		// notifications are best effort
		_ = n.sender.Send("imgbundle", message)
	}
}

// Error announces a failed archive
func (n *Notifier) Error(message string) {
	if n.sender != nil && n.onError {
		_ = n.sender.Send("imgbundle", message)
	}
}
