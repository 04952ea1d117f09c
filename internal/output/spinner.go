package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const progressPathWidth = 48

// Spinner shows scan progress on a writer (typically stderr). Update and
// Progress may be called from any goroutine.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	widest  int
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Start begins the spinner animation with the given message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.setLocked(message)
	s.done = make(chan struct{})
	s.stopped = false
	s.mu.Unlock()

	go s.loop()
}

// Update changes the displayed message while the spinner is running.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.setLocked(message)
	s.mu.Unlock()
}

// Progress reports that the artifact at path is the done-th of total.
// Its signature matches scanner.ProgressFunc.
func (s *Spinner) Progress(done, total int, path string) {
	s.Update(fmt.Sprintf("Scanning [%d/%d] %s", done, total, truncateLeft(path, progressPathWidth)))
}

// Stop halts the spinner and clears its line. It is idempotent.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.stopped || s.done == nil {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.widest+4))
	s.mu.Unlock()
}

func (s *Spinner) setLocked(message string) {
	s.message = message
	s.widest = max(s.widest, utf8.RuneCountInString(message))
}

func (s *Spinner) loop() {
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	i := 0
	for {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			if s.stopped {
				s.mu.Unlock()
				return
			}
			frame := spinnerFrames[i%len(spinnerFrames)]
			// Pad with spaces to overwrite any leftover chars from a longer previous message
			fmt.Fprintf(s.w, "\r%c %-*s", frame, s.widest, s.message)
			s.mu.Unlock()
			i++
		}
	}
}

// truncateLeft keeps the tail of long paths, where the file name is.
func truncateLeft(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return "..." + string(r[len(r)-maxLen+3:])
}
