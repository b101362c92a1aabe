package notify

import (
	"context"
	"log"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"campus-paths/internal/models"
)

// DialogNotifier shows notifications as native message dialogs in the
// desktop window. Notifications raised before Attach are held and shown once
// the window exists.
type DialogNotifier struct {
	mu      sync.Mutex
	appCtx  context.Context
	pending []runtime.MessageDialogOptions
	show    func(ctx context.Context, opts runtime.MessageDialogOptions) (string, error)
}

// NewDialogNotifier creates a notifier backed by Wails message dialogs
func NewDialogNotifier() *DialogNotifier {
	return &DialogNotifier{show: runtime.MessageDialog}
}

// Attach binds the notifier to the running Wails application
func (d *DialogNotifier) Attach(ctx context.Context) {
	d.mu.Lock()
	d.appCtx = ctx
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(pending) > 0 {
		log.Printf("[NOTIFY] Showing %d notification(s) raised before the window opened", len(pending))
	}
	for _, opts := range pending {
		d.display(ctx, opts)
	}
}

func (d *DialogNotifier) Notify(ctx context.Context, kind models.NotificationKind, message string) {
	opts := runtime.MessageDialogOptions{
		Type:    runtime.InfoDialog,
		Title:   "Campus Paths",
		Message: message,
	}
	if kind == models.NotificationError {
		opts.Type = runtime.ErrorDialog
		opts.Title = "Request failed"
	}

	d.mu.Lock()
	appCtx := d.appCtx
	if appCtx == nil {
		d.pending = append(d.pending, opts)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.display(appCtx, opts)
}

func (d *DialogNotifier) display(appCtx context.Context, opts runtime.MessageDialogOptions) {
	// The dialog blocks until dismissed, so it must not hold up the caller.
	go func() {
		if _, err := d.show(appCtx, opts); err != nil {
			log.Printf("[ERROR] Failed to show dialog: err=%v", err)
		}
	}()
}
