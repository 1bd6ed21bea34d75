package scene

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"golang.org/x/image/colornames"
)

// Group is a plain container node.
type Group struct {
	Base
}

func NewGroup(name string) *Group {
	g := &Group{}
	g.init(g, name)
	return g
}

// Sprite draws an image at a fixed position.
type Sprite struct {
	Base
	Image *ebiten.Image
	X, Y  float64
}

func NewSprite(name string, img *ebiten.Image, x, y float64) *Sprite {
	s := &Sprite{Image: img, X: x, Y: y}
	s.init(s, name)
	return s
}

func (s *Sprite) Draw(screen *ebiten.Image) {
	if s.Image == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(s.X, s.Y)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(s.Image, op)
}

// OnFree hands the GPU texture back; it must not run while a frame is
// being drawn.
func (s *Sprite) OnFree() {
	if s.Image != nil {
		s.Image.Deallocate()
		s.Image = nil
	}
}

// Rect fills a solid rectangle.
type Rect struct {
	Base
	X, Y, W, H float64
	Color      color.Color
}

func NewRect(name string, x, y, w, h float64, c color.Color) *Rect {
	if c == nil {
		c = colornames.Cornflowerblue
	}
	r := &Rect{X: x, Y: y, W: w, H: h, Color: c}
	r.init(r, name)
	return r
}

func (r *Rect) Draw(screen *ebiten.Image) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	bounds := image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H)).Intersect(screen.Bounds())
	if bounds.Empty() {
		return
	}
	c := r.Color
	if c == nil {
		c = colornames.Cornflowerblue
	}
	screen.SubImage(bounds).(*ebiten.Image).Fill(c)
}

// Label prints debug text.
type Label struct {
	Base
	Text string
	X, Y int
}

func NewLabel(name, text string, x, y int) *Label {
	l := &Label{Text: text, X: x, Y: y}
	l.init(l, name)
	return l
}

func (l *Label) Draw(screen *ebiten.Image) {
	if l.Text == "" {
		return
	}
	ebitenutil.DebugPrintAt(screen, l.Text, l.X, l.Y)
}
