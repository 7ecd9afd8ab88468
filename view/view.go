/*package view replays the snapshots of a run in the terminal.

The channel is scaled to fit the screen, with x running left to right and y
running bottom to top. Particles are drawn as 'o', obstacles as '#' and the
two walls as lines. Space pauses, '+' and '-' change the replay speed, and
'q' or Esc quits.
*/
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

const (
	Empty    = ' '
	Mobile   = 'o'
	Obstacle = '#'
	Wall     = '─'

	minDelay = 5 * time.Millisecond
	maxDelay = 2 * time.Second
)

// Layout maps channel coordinates onto terminal cells. Row 0 and row
// Rows+1 hold the walls and the last screen line holds the status bar.
type Layout struct {
	Cols, Rows    int
	Length, Width float64
}

// NewLayout fits a length x width channel into a screen of the given size.
func NewLayout(screenW, screenH int, length, width float64) Layout {
	l := Layout{Cols: screenW, Rows: screenH - 3, Length: length, Width: width}
	if l.Cols < 1 {
		l.Cols = 1
	}
	if l.Rows < 1 {
		l.Rows = 1
	}
	return l
}

// Cell returns the screen cell of a point in the channel. ok is false for
// points outside of it.
func (l Layout) Cell(x r2.Vec) (col, row int, ok bool) {
	if !(x.X >= 0 && x.X < l.Length && x.Y >= 0 && x.Y <= l.Width) {
		return 0, 0, false
	}
	col = int(math.Floor(x.X / l.Length * float64(l.Cols)))
	row = int(math.Floor((l.Width - x.Y) / l.Width * float64(l.Rows)))
	if col >= l.Cols {
		col = l.Cols - 1
	}
	if row >= l.Rows {
		row = l.Rows - 1
	}
	return col, row + 1, true
}

// Raster draws one snapshot into a Cols x (Rows+2) grid of runes, stored
// row by row. Particles are drawn over obstacles.
func Raster(l Layout, snap *particle.Snapshot, obstacles []particle.Particle) []rune {
	buf := make([]rune, l.Cols*(l.Rows+2))
	for i := range buf {
		buf[i] = Empty
	}
	for col := 0; col < l.Cols; col++ {
		buf[col] = Wall
		buf[col+(l.Rows+1)*l.Cols] = Wall
	}

	for i := range obstacles {
		if col, row, ok := l.Cell(obstacles[i].X); ok {
			buf[col+row*l.Cols] = Obstacle
		}
	}
	if snap != nil {
		for _, x := range snap.Xs {
			if col, row, ok := l.Cell(x); ok {
				buf[col+row*l.Cols] = Mobile
			}
		}
	}
	return buf
}

// player is the replay state that key presses act on.
type player struct {
	frame  int
	paused bool
	delay  time.Duration
	quit   bool
}

func (p *player) handle(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
		p.quit = true
	case ev.Key() != tcell.KeyRune:
	case ev.Rune() == 'q':
		p.quit = true
	case ev.Rune() == ' ':
		p.paused = !p.paused
	case ev.Rune() == '+':
		p.delay /= 2
		if p.delay < minDelay {
			p.delay = minDelay
		}
	case ev.Rune() == '-':
		p.delay *= 2
		if p.delay > maxDelay {
			p.delay = maxDelay
		}
	}
}

// Run replays snaps on a tcell screen until the user quits. The last frame
// stays on screen once the replay ends.
func Run(
	snaps []*particle.Snapshot, obstacles []particle.Particle,
	length, width float64,
) error {
	if len(snaps) == 0 {
		return fmt.Errorf("No snapshots to show.")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go forward(screen.PollEvent, events, done)

	p := &player{delay: 50 * time.Millisecond}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	for !p.quit {
		draw(screen, snaps[p.frame], obstacles, length, width, p, len(snaps))

		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				p.handle(ev)
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-timer.C:
			if !p.paused && p.frame < len(snaps)-1 {
				p.frame++
			}
			timer.Reset(p.delay)
		}
	}

	return nil
}

// forward sends the results of poll to events until poll returns nil or done
// is closed.
func forward(poll func() tcell.Event, events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := poll()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

func draw(
	screen tcell.Screen, snap *particle.Snapshot,
	obstacles []particle.Particle, length, width float64,
	p *player, frames int,
) {
	w, h := screen.Size()
	l := NewLayout(w, h, length, width)
	buf := Raster(l, snap, obstacles)

	screen.Clear()
	for row := 0; row < l.Rows+2; row++ {
		for col := 0; col < l.Cols; col++ {
			r := buf[col+row*l.Cols]
			style := tcell.StyleDefault
			switch r {
			case Mobile:
				style = style.Foreground(tcell.ColorYellow)
			case Obstacle:
				style = style.Foreground(tcell.ColorBlue)
			}
			screen.SetContent(col, row, r, nil, style)
		}
	}

	status := fmt.Sprintf(
		" t = %-10.4g frame %d/%d  delay %v", snap.Time, p.frame+1, frames, p.delay,
	)
	if p.paused {
		status += "  [paused]"
	}
	for i, r := range []rune(status) {
		if i >= w {
			break
		}
		screen.SetContent(i, l.Rows+2, r, nil, tcell.StyleDefault.Reverse(true))
	}
	screen.Show()
}
