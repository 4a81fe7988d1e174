package infra

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// NotifyPresenter implements domain.Presenter for headless operation:
// nudges become desktop notifications via org.freedesktop.Notifications,
// and the commands that need a real compositor (grayscale, overlay,
// intervention, redirects) are logged as structured commands for the UI
// process to pick up.
type NotifyPresenter struct {
	conn        *dbus.Conn
	log         *zap.Logger
	lastNotifID uint32
}

// NewNotifyPresenter connects to the session bus. A missing bus is not
// fatal: nudges degrade to log lines.
func NewNotifyPresenter(logger *zap.Logger) *NotifyPresenter {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Warn("no session bus, nudges will be log-only", zap.Error(err))
		conn = nil
	}
	return &NotifyPresenter{conn: conn, log: logger}
}

// Close releases the bus connection.
func (p *NotifyPresenter) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// ShowNudge displays a nudge as a desktop notification.
func (p *NotifyPresenter) ShowNudge(cmd domain.NudgeCommand) {
	summary := "Stay intentional"
	urgency := byte(1)
	if cmd.Escalated {
		summary = "Still off track"
		urgency = 2
	}

	body := fmt.Sprintf("%q is pulling you away from: %s", cmd.DisplayName, cmd.Intention)
	if cmd.DistractionMinutes > 0 {
		body = fmt.Sprintf("%s (%d min off-target)", body, cmd.DistractionMinutes)
	}
	if cmd.Warning != "" {
		body = fmt.Sprintf("%s. %s", body, cmd.Warning)
	}

	if p.conn == nil {
		p.log.Info("nudge", zap.String("summary", summary), zap.String("body", body))
		return
	}

	obj := p.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		"intentiond",   // app_name
		p.lastNotifID,  // replaces_id: update in place instead of stacking
		"view-refresh", // app_icon
		summary,
		body,
		[]string{}, // actions
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(urgency),
		},
		int32(10000), // expire_timeout
	)
	if call.Err != nil {
		p.log.Warn("failed to send nudge notification", zap.Error(call.Err))
		return
	}
	if err := call.Store(&p.lastNotifID); err != nil {
		p.log.Warn("failed to read notification id", zap.Error(err))
	}
}

// DismissNudge closes the active notification.
func (p *NotifyPresenter) DismissNudge() {
	if p.conn == nil || p.lastNotifID == 0 {
		return
	}
	obj := p.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	if call := obj.Call("org.freedesktop.Notifications.CloseNotification", 0, p.lastNotifID); call.Err != nil {
		p.log.Debug("failed to close notification", zap.Error(call.Err))
	}
	p.lastNotifID = 0
}

// ShowOverlay logs the overlay command for the UI process.
func (p *NotifyPresenter) ShowOverlay(cmd domain.OverlayCommand) {
	p.log.Info("command: show_overlay",
		zap.String("intention", cmd.Intention),
		zap.String("reason", cmd.Reason),
		zap.Bool("no_plan", cmd.NoPlan))
}

// DismissOverlay logs the dismissal for the UI process.
func (p *NotifyPresenter) DismissOverlay() {
	p.log.Info("command: dismiss_overlay")
}

// ShowIntervention logs the intervention command for the UI process.
func (p *NotifyPresenter) ShowIntervention(cmd domain.InterventionCommand) {
	p.log.Info("command: show_intervention",
		zap.String("display_name", cmd.DisplayName),
		zap.Int("distraction_minutes", cmd.DistractionMinutes),
		zap.Int("duration_seconds", cmd.DurationSeconds))
}

// SetGrayscale logs the grayscale command for the UI process.
func (p *NotifyPresenter) SetGrayscale(active bool, intensity float64) {
	p.log.Info("command: set_grayscale",
		zap.Bool("active", active),
		zap.Float64("intensity", intensity))
}

// SetTimerIndicator logs the timer-pill command for the UI process.
func (p *NotifyPresenter) SetTimerIndicator(distracted bool) {
	p.log.Info("command: set_timer_indicator", zap.Bool("distracted", distracted))
}

// RedirectToURL logs the redirect command for the extension bridge.
func (p *NotifyPresenter) RedirectToURL(url string) {
	p.log.Info("command: redirect", zap.String("url", url))
}

// RedirectToBlockPage logs the block-page redirect for the extension bridge.
func (p *NotifyPresenter) RedirectToBlockPage(reason string) {
	p.log.Info("command: redirect_block_page", zap.String("reason", reason))
}

var _ domain.Presenter = (*NotifyPresenter)(nil)
