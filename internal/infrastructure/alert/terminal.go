// Package alert renders pushed notifications on a terminal: an audible bell
// and a one-line toast.
package alert

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/pmdesk/pmdesk/internal/core/ports"
)

const bell = "\a"

var levelColor = map[string]string{
	ports.ToastInfo:    "\x1b[36m",
	ports.ToastWarning: "\x1b[33m",
	ports.ToastError:   "\x1b[31m",
}

// Terminal implements ports.Alerter.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	sound bool
	color bool
	now   func() time.Time
}

// NewTerminal writes to w. Colour is used only when w is a terminal; the
// bell is rung only when sound is true.
func NewTerminal(w io.Writer, sound bool) *Terminal {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Terminal{w: w, sound: sound, color: color, now: time.Now}
}

func (t *Terminal) Sound() {
	if !t.sound {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, bell)
}

func (t *Terminal) Toast(level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stamp := t.now().Format("15:04:05")
	if c, ok := levelColor[level]; ok && t.color {
		_, _ = fmt.Fprintf(t.w, "%s %s[%s]\x1b[0m %s\n", stamp, c, level, message)
		return
	}
	_, _ = fmt.Fprintf(t.w, "%s [%s] %s\n", stamp, level, message)
}
