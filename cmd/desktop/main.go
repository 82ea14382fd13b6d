package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"tacc/pkg/compiler"
	"tacc/pkg/grid"
	"tacc/pkg/utils"
	"tacc/pkg/vm"
)

const (
	screenWidth  = 640
	screenHeight = 480
	charWidth    = 8
	charHeight   = 14
	cols         = screenWidth / charWidth
	rows         = screenHeight / charHeight
	bodyRows     = rows - 3 // title and two status lines
)

type pane int

const (
	paneSource pane = iota
	paneListing
	paneVars
	paneCount
)

var paneTitles = [...]string{
	paneSource:  "Source",
	paneListing: "Generated Assembly",
	paneVars:    "Variables",
}

type Game struct {
	res     *compiler.Result
	env     vm.Env
	machine *vm.Machine
	face    text.Face

	pane   pane
	scroll [paneCount]int
}

func NewGame(res *compiler.Result, env vm.Env) (*Game, error) {
	m, err := vm.New(res.Listing, env)
	if err != nil {
		return nil, err
	}
	return &Game{
		res:     res,
		env:     env,
		machine: m,
		face:    text.NewGoXFace(basicfont.Face7x13),
	}, nil
}

// lines returns the body text of the active pane.
func (g *Game) lines() []string {
	switch g.pane {
	case paneSource:
		return strings.Split(strings.TrimRight(g.res.Source, "\n"), "\n")
	case paneListing:
		return listingLines(g.res.Listing, g.machine.PC, g.machine.Halted)
	default:
		return varLines(g.res.Symbols, g.machine)
	}
}

// listingLines numbers the listing and marks the instruction at pc.
func listingLines(l compiler.Listing, pc int, halted bool) []string {
	out := make([]string, len(l))
	for i, in := range l {
		mark := " "
		if i == pc && !halted {
			mark = ">"
		}
		out[i] = fmt.Sprintf("%s%4d  %s", mark, i, in)
	}
	return out
}

func varLines(syms *compiler.SymbolTable, m *vm.Machine) []string {
	var out []string
	for _, sym := range syms.Symbols() {
		out = append(out, fmt.Sprintf("%s -> %s", sym.Name, sym.Register))
	}
	out = append(out, "")
	for _, name := range m.VarNames() {
		out = append(out, fmt.Sprintf("%s = %s", name, m.Vars[name]))
	}
	return out
}

// scrollBy moves the active pane's view, clamped to its content.
func (g *Game) scrollBy(delta int) {
	s := g.scroll[g.pane] + delta
	if limit := len(g.lines()) - bodyRows; s > limit {
		s = limit
	}
	if s < 0 {
		s = 0
	}
	g.scroll[g.pane] = s
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.pane = (g.pane + 1) % paneCount
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		g.scrollBy(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		g.scrollBy(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		g.scrollBy(-bodyRows)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageDown) {
		g.scrollBy(bodyRows)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.machine.Step()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		_ = g.machine.Run()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		m, err := vm.New(g.res.Listing, g.env)
		if err == nil {
			g.machine = m
		}
	}
	return nil
}

func (g *Game) drawText(screen *ebiten.Image, s string, row int, clr color.Color) {
	for _, c := range grid.Layout([]string{s}, cols) {
		x, _ := grid.GetGridCoords(c.Index, cols)
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(x*charWidth), float64(row*charHeight))
		op.ColorScale.ScaleWithColor(clr)
		text.Draw(screen, string(c.Rune), g.face, op)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	title := fmt.Sprintf("[%s]  Tab: switch  Up/Down: scroll  Space: step  Enter: run  R: reset", paneTitles[g.pane])
	g.drawText(screen, title, 0, color.RGBA{0xff, 0xcc, 0x00, 0xff})

	body := g.lines()
	start := g.scroll[g.pane]
	if start > len(body) {
		start = len(body)
	}
	end := start + bodyRows
	if end > len(body) {
		end = len(body)
	}

	for _, c := range grid.Layout(body[start:end], cols) {
		x, y := grid.GetGridCoords(c.Index, cols)
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(x*charWidth), float64((y+1)*charHeight))
		text.Draw(screen, string(c.Rune), g.face, op)
	}

	status := fmt.Sprintf("pc %d  steps %d  halted %v", g.machine.PC, g.machine.Steps, g.machine.Halted)
	if g.machine.Err != nil {
		status += "  error: " + g.machine.Err.Error()
	}
	ebitenutil.DebugPrintAt(screen, status, 0, (rows-2)*charHeight)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	env := vm.Env{}
	flag.Var(env, "set", "bind a variable before running, as name=value (repeatable)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [-set name=value ...] <source file>")
		os.Exit(2)
	}

	src, err := utils.ReadSource(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}
	res, err := compiler.Compile(src)
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}

	game, err := NewGame(res, env)
	if err != nil {
		log.Fatalf("Invalid listing: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("tacc " + flag.Arg(0))

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
