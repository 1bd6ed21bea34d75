package scene

import "github.com/jakecoffman/cp"

// Body mirrors a Chipmunk box into the tree. The body and shape are removed
// from the space when the node is freed, never mid-step.
type Body struct {
	Base
	Space *cp.Space
	Body  *cp.Body
	Shape *cp.Shape
}

// NewBody adds a box of size w x h centered at (x, y) to space. A mass of
// zero or less makes a static body.
func NewBody(name string, space *cp.Space, x, y, w, h, mass float64) *Body {
	var body *cp.Body
	if mass > 0 {
		body = cp.NewBody(mass, cp.MomentForBox(mass, w, h))
	} else {
		body = cp.NewStaticBody()
	}
	body.SetPosition(cp.Vector{X: x, Y: y})
	shape := cp.NewBox(body, w, h, 0)

	n := &Body{Space: space, Body: body, Shape: shape}
	if space != nil {
		space.AddBody(body)
		space.AddShape(shape)
	}
	n.init(n, name)
	return n
}

// Position returns the body's current center.
func (b *Body) Position() (float64, float64) {
	if b.Body == nil {
		return 0, 0
	}
	p := b.Body.Position()
	return p.X, p.Y
}

func (b *Body) OnFree() {
	if b.Space != nil {
		if b.Shape != nil {
			b.Space.RemoveShape(b.Shape)
		}
		if b.Body != nil {
			b.Space.RemoveBody(b.Body)
		}
	}
	b.Shape = nil
	b.Body = nil
}
