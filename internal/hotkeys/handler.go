package hotkeys

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/surfaced/internal/config"
)

// Actions are the daemon operations a hotkey can trigger. Callbacks run on
// the X event goroutine and must hand work to the loop themselves.
type Actions struct {
	CloseActive        func()
	RaiseAll           func()
	ToggleFrameDropper func()
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	mu    sync.Mutex
	bound []string
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})
	return &Handler{
		xu:     xu,
		root:   root,
		logger: logger.With("component", "hotkeys"),
	}
}

// Bind registers every configured hotkey, replacing earlier bindings.
// Unset sequences are skipped; a failed binding is reported but does not
// stop the rest.
func (h *Handler) Bind(keys config.Hotkeys, actions Actions) error {
	h.Unbind()

	var errs []string
	for _, b := range bindings(keys, actions) {
		if err := h.RegisterFunc(b.sequence, b.action); err != nil {
			errs = append(errs, fmt.Sprintf("%s (%s): %v", b.name, b.sequence, err))
			continue
		}
		h.logger.Info("hotkey registered", "action", b.name, "keys", b.sequence)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to register hotkeys: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Unbind drops every hotkey registered through this handler.
func (h *Handler) Unbind() {
	h.mu.Lock()
	bound := h.bound
	h.bound = nil
	h.mu.Unlock()

	if len(bound) == 0 {
		return
	}
	keybind.Detach(h.xu, h.root)
	h.logger.Debug("hotkeys unbound", "count", len(bound))
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.bound = append(h.bound, keySequence)
	h.mu.Unlock()
	return nil
}

type binding struct {
	name     string
	sequence string
	action   func()
}

// bindings pairs configured sequences with their actions, dropping the
// ones that are unset or have no action.
func bindings(keys config.Hotkeys, actions Actions) []binding {
	all := []binding{
		{"close", keys.Close, actions.CloseActive},
		{"raise_all", keys.RaiseAll, actions.RaiseAll},
		{"toggle_frame_dropper", keys.ToggleFrameDropper, actions.ToggleFrameDropper},
	}
	out := all[:0]
	for _, b := range all {
		b.sequence = strings.TrimSpace(b.sequence)
		if b.sequence == "" || b.action == nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = ignoreMasks(caps, numLock, scrollLock)
}

// ignoreMasks returns every combination of the given lock masks, including
// none. Zero and duplicate masks are skipped.
func ignoreMasks(masks ...uint16) []uint16 {
	var base []uint16
	for _, m := range masks {
		if m == 0 {
			continue
		}
		dup := false
		for _, b := range base {
			if b == m {
				dup = true
				break
			}
		}
		if !dup {
			base = append(base, m)
		}
	}

	out := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
