package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

func testScene(t *testing.T) scene.Scene {
	t.Helper()
	d := diagram.New(diagram.Grid{Cells: 8, Rows: 8})
	steps := []struct {
		x, y  int
		fresh bool
	}{
		{0, 0, false}, {1, 2, false}, {4, 2, true},
	}
	for _, s := range steps {
		var err error
		if d, _, err = d.Place(s.x, s.y, s.fresh); err != nil {
			t.Fatalf("Place: %v", err)
		}
	}
	return scene.Build(d)
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testScene(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`"e1" [label="1\n(0,0)"`,
		`"e3" [label="3\n(4,2)"`,
		`"e1" -> "e2" [label="0.50c"`,
		`{ rank=same; "e2"; "e3"; }`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "->") != 1 {
		t.Errorf("want exactly one edge:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testScene(t), Options{Detailed: true})
	if !strings.Contains(dot, `label="0.50c\nγ 1.15\nτ 1.73"`) {
		t.Errorf("detailed edge label missing:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116">`) {
		t.Errorf("unexpected root element: %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Error("SVG without viewBox should be returned unchanged")
	}
}
