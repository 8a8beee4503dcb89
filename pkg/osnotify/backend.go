package osnotify

import (
	"context"
	"errors"
	"runtime"

	"github.com/gen2brain/beeep"
)

// Popup is the content of one desktop notification.
type Popup struct {
	Title string
	Body  string
	Icon  string
	// Tag groups popups about the same record; backends that support it
	// replace an older popup with the same tag.
	Tag string
}

// Handle is a shown popup.
type Handle interface {
	// Clicked is closed or receives when the user activates the popup. It
	// may be nil for backends that cannot report clicks.
	Clicked() <-chan struct{}
	Close() error
}

// Backend shows popups on the host desktop.
type Backend interface {
	Supported() bool
	Show(ctx context.Context, p Popup) (Handle, error)
}

// DesktopBackend shows popups through the platform notification service.
// The platform does not report clicks back, so its handles never fire
// Clicked.
type DesktopBackend struct{}

// NewDesktopBackend sets the application name shown by the OS.
func NewDesktopBackend(appName string) DesktopBackend {
	if appName != "" {
		beeep.AppName = appName
	}
	return DesktopBackend{}
}

// Supported reports whether the current OS has a notification service beeep
// can talk to.
func (b DesktopBackend) Supported() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "windows", "freebsd", "netbsd", "openbsd":
		return true
	default:
		return false
	}
}

func (b DesktopBackend) Show(ctx context.Context, p Popup) (Handle, error) {
	if !b.Supported() {
		return nil, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := beeep.Notify(p.Title, p.Body, p.Icon); err != nil {
		return nil, errors.Join(ErrShow, err)
	}
	return staticHandle{}, nil
}

type staticHandle struct{}

func (staticHandle) Clicked() <-chan struct{} { return nil }
func (staticHandle) Close() error             { return nil }
