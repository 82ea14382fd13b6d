package main

import (
	"reflect"
	"testing"

	"tacc/pkg/compiler"
	"tacc/pkg/vm"
)

func newTestGame(t *testing.T, src string) *Game {
	t.Helper()
	res, err := compiler.Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	m, err := vm.New(res.Listing, nil)
	if err != nil {
		t.Fatal(err)
	}
	// No font face: these tests never draw.
	return &Game{res: res, machine: m}
}

func TestListingLines(t *testing.T) {
	res, err := compiler.Compile("x = 1")
	if err != nil {
		t.Fatal(err)
	}
	got := listingLines(res.Listing, 1, false)
	want := []string{
		"    0  LOAD_CONST 1 -> R1",
		">   1  STORE R1 -> x",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("listingLines = %q, want %q", got, want)
	}

	got = listingLines(res.Listing, 2, true)
	if got[1][0] != ' ' {
		t.Errorf("halted machine should have no marker: %q", got)
	}
}

func TestGamePanes(t *testing.T) {
	g := newTestGame(t, "x = 2\ny = x + 1\n")

	if got := g.lines(); !reflect.DeepEqual(got, []string{"x = 2", "y = x + 1"}) {
		t.Errorf("source pane = %q", got)
	}

	g.pane = paneVars
	if err := g.machine.Run(); err != nil {
		t.Fatal(err)
	}
	want := []string{"x -> R1", "y -> R4", "", "x = 2", "y = 3"}
	if got := g.lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("vars pane = %q, want %q", got, want)
	}
}

func TestGameScrollClamps(t *testing.T) {
	g := newTestGame(t, "x = 1")
	g.pane = paneListing

	g.scrollBy(5)
	if g.scroll[paneListing] != 0 {
		t.Errorf("short pane scrolled to %d", g.scroll[paneListing])
	}
	g.scrollBy(-3)
	if g.scroll[paneListing] != 0 {
		t.Errorf("scrolled above top: %d", g.scroll[paneListing])
	}
}
