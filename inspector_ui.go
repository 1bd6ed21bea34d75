package main

import (
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// Inspector is a debug overlay listing live entities and their component
// kinds. Tab toggles it, C copies its contents.
type Inspector struct {
	ui      *ebitenui.UI
	body    *widget.Text
	last    string
	visible bool
}

func NewInspector(width int) *Inspector {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 180})

	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	title := widget.NewText(
		widget.TextOpts.Text("Entities  [tab] hide  [c] copy  [r] reload  [x] despawn  [t] spark", &face, white),
	)
	body := widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0xc0, G: 0xe0, B: 0xff, A: 0xff}),
	)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 8, Bottom: 8, Left: 10, Right: 10}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(width/2, 0),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionEnd, VerticalPosition: widget.AnchorLayoutPositionStart}),
		),
	)
	panel.AddChild(title)
	panel.AddChild(body)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	return &Inspector{ui: &ebitenui.UI{Container: root}, body: body}
}

// Update refreshes the listing and runs the UI when visible.
func (i *Inspector) Update(dump string) {
	if !i.visible {
		return
	}
	if dump != i.last {
		i.body.Label = dump
		i.last = dump
	}
	i.ui.Update()
}

func (i *Inspector) Draw(screen *ebiten.Image) {
	if !i.visible {
		return
	}
	i.ui.Draw(screen)
}
