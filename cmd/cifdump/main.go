// Command cifdump reads a CIF layout file and prints a summary of its
// cell tree, shape counts, and layer table.
package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/width"

	cif "github.com/mrohne/klayout"
	"github.com/mrohne/klayout/layout"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: cifdump <file.cif>")
		os.Exit(2)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "cifdump:", err)
		os.Exit(1)
	}
	defer f.Close()

	lay := layout.NewLayout()
	opts := &cif.Options{
		Warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}

	if err := cif.Read(bufio.NewReader(f), lay, opts); err != nil {
		fmt.Fprintln(os.Stderr, "cifdump:", err)
		os.Exit(1)
	}

	printSummary(lay)
}

// printSummary renders the cell and layer tables. Column widths account
// for East-Asian-wide characters in cell/layer names via
// golang.org/x/text/width, and the choice between a box-drawn or plain
// table is made by detecting whether stdout is a terminal via
// golang.org/x/term.
func printSummary(lay *layout.Layout) {
	boxed := term.IsTerminal(int(os.Stdout.Fd()))

	fmt.Printf("dbu = %g microns\n\n", lay.DBU())

	fmt.Println("cells:")
	ids := lay.CellIDs()
	nameWidth := len("name")
	for _, id := range ids {
		if w := displayWidth(lay.CellName(id)); w > nameWidth {
			nameWidth = w
		}
	}
	printRow(boxed, nameWidth, "name", "id", "shapes", "instances")
	for _, id := range ids {
		printRow(boxed, nameWidth,
			lay.CellName(id),
			fmt.Sprintf("%d", id),
			fmt.Sprintf("%d", lay.ShapeCount(id)),
			fmt.Sprintf("%d", lay.InstanceCount(id)),
		)
	}

	fmt.Println("\nlayers:")
	layers := lay.Layers()
	indices := make([]int, 0, len(layers))
	for idx := range layers {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		props := layers[idx]
		if props.HasNumeric {
			fmt.Printf("  %3d: layer=%d datatype=%d name=%q\n", idx, props.Layer, props.Datatype, props.Name)
		} else {
			fmt.Printf("  %3d: name=%q\n", idx, props.Name)
		}
	}
}

func printRow(boxed bool, nameWidth int, name, id, shapes, instances string) {
	sep := "  "
	if boxed {
		sep = " | "
	}
	pad := strings.Repeat(" ", nameWidth-displayWidth(name))
	fmt.Printf("%s%s%s%-6s%s%-8s%s%s\n", name, pad, sep, id, sep, shapes, sep, instances)
}

// displayWidth measures a string's terminal column width, treating
// East-Asian wide and fullwidth runes as occupying two columns.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
