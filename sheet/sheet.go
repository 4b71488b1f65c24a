// Package sheet renders a printable PDF party sheet: a minimap of the grid,
// each hero's stat block and abilities, and the remaining lairs.
package sheet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/nathoo/lairgrid/engine"
	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/types"
)

const (
	pageW     = 595
	pageH     = 842
	margin    = 40
	mapMaxW   = pageW - 2*margin
	mapMaxH   = 300
	fontSize  = 9
	titleSize = 16
	rowH      = 12
)

// sheetStats are printed for every hero, in this order.
var sheetStats = []string{"hp", "max_hp", "mana", "max_mana", "moves_left", "moves_count",
	"move_range", "attack_range", "view_range", "armor", "defense", "level"}

// ErrNoGrid is returned for a game without grid dimensions.
var ErrNoGrid = errors.New("game has no grid")

// Generate returns PDF bytes describing the current encounter.
func Generate(e *engine.Engine) ([]byte, error) {
	g := e.Defs.Game
	if g.Width <= 0 || g.Height <= 0 {
		return nil, ErrNoGrid
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(g.Title+" party sheet", true)
	pdf.AddPage()

	// Parchment background
	pdf.SetFillColor(245, 235, 210)
	pdf.Rect(0, 0, pageW, pageH, "F")
	pdf.SetTextColor(60, 40, 25)
	pdf.SetDrawColor(80, 50, 30)

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 20, g.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	pdf.CellFormat(0, rowH, fmt.Sprintf("Turn %d, %s. %d hero(es), %d enemies, %d lair(s).",
		e.World.Turn, e.Phase, len(e.World.Heroes()), len(e.World.Enemies()), len(e.World.Lairs)),
		"", 1, "L", false, 0, "")
	pdf.Ln(6)

	drawMinimap(pdf, e)

	for _, h := range e.World.Heroes() {
		drawHero(pdf, h)
	}
	drawLairs(pdf, e)

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawMinimap paints one square per cell, scaled to fit the map box.
func drawMinimap(pdf *gofpdf.Fpdf, e *engine.Engine) {
	w, h := e.Defs.Game.Width, e.Defs.Game.Height
	size := min(float64(mapMaxW)/float64(w), float64(mapMaxH)/float64(h))
	x0, y0 := float64(margin), pdf.GetY()

	pdf.SetLineWidth(0.2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, gr, b := glyphColor(e.Glyph(types.Cell{X: x, Y: y}))
			pdf.SetFillColor(r, gr, b)
			pdf.Rect(x0+float64(x)*size, y0+float64(y)*size, size, size, "F")
		}
	}
	pdf.SetLineWidth(1)
	pdf.Rect(x0, y0, float64(w)*size, float64(h)*size, "D")
	pdf.SetY(y0 + float64(h)*size + 10)
}

func glyphColor(g rune) (r, gr, b int) {
	switch g {
	case engine.GlyphBlocked:
		return 90, 80, 70
	case engine.GlyphLair:
		return 120, 30, 120
	case engine.GlyphActive:
		return 20, 120, 220
	case engine.GlyphHero:
		return 60, 160, 230
	case engine.GlyphEnemy:
		return 200, 60, 40
	case engine.GlyphGuardian:
		return 150, 20, 20
	case engine.GlyphBoss:
		return 90, 0, 0
	case engine.GlyphNPC, engine.GlyphItem:
		return 200, 170, 40
	}
	return 235, 222, 190
}

func drawHero(pdf *gofpdf.Fpdf, h *entity.Entity) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 16, fmt.Sprintf("%s (%s) at %s", h.Name, h.ID, h.Cell), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)

	const colW = 128
	for i, k := range sheetStats {
		eff, bonus, _ := h.Stats.Get(k)
		label := fmt.Sprintf("%s: %d", k, eff)
		if bonus != 0 {
			label += fmt.Sprintf(" (%+d)", bonus)
		}
		ln := 0
		if i%4 == 3 {
			ln = 1
		}
		pdf.CellFormat(colW, rowH, label, "", ln, "L", false, 0, "")
	}
	if len(sheetStats)%4 != 0 {
		pdf.Ln(rowH)
	}

	for _, fx := range h.Stats.Effects() {
		pdf.CellFormat(0, rowH, fmt.Sprintf("Effect: %s %+d for %d turn(s)", fx.Stat, fx.Value, fx.Duration), "", 1, "L", false, 0, "")
	}
	for i, ab := range h.Abilities {
		mark := ""
		if i == h.Selected {
			mark = " (selected)"
		}
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.CellFormat(0, rowH, fmt.Sprintf("%d. %s%s", i+1, ab.Name, mark), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", fontSize)
		if ab.Description != "" {
			pdf.MultiCell(0, rowH, ab.Description, "", "L", false)
		}
		pdf.SetFont("Courier", "", fontSize-1)
		pdf.MultiCell(0, rowH, ab.Effect, "", "L", false)
		pdf.SetFont("Helvetica", "", fontSize)
	}
	pdf.Ln(8)
}

func drawLairs(pdf *gofpdf.Fpdf, e *engine.Engine) {
	if len(e.World.Lairs) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 16, "Lairs", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	for _, l := range e.World.Lairs {
		mood := "dormant"
		if l.GuardiansSpawned {
			mood = "awake"
		}
		pdf.CellFormat(0, rowH, fmt.Sprintf("%s: %d guardian(s) left, %s, roamers in %d turn(s)",
			l.Cell, l.GuardiansNeeded, mood, l.SpawnTimer), "", 1, "L", false, 0, "")
	}
}
