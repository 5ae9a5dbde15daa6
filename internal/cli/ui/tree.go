package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/oxjest/mockgraph/runtime/mock"
	"github.com/oxjest/mockgraph/runtime/value"
)

// Tree writes md as an indented outline, one node per line:
//
//	object #0
//	  greet: function greet #1
//	  retries: constant 3
//	  self: → #0
func Tree(w io.Writer, md *mock.Metadata, noColor bool) {
	kind := color.New(color.FgCyan)
	ref := color.New(color.FgHiBlack)
	if noColor {
		kind.DisableColor()
		ref.DisableColor()
	}
	writeNode(w, md, "", 0, kind, ref)
}

func writeNode(w io.Writer, md *mock.Metadata, name string, depth int, kind, ref *color.Color) {
	indent := strings.Repeat("  ", depth)
	label := indent
	if name != "" {
		label += name + ": "
	}

	if md.IsRef() {
		fmt.Fprintf(w, "%s%s\n", label, ref.Sprintf("→ #%d", *md.Ref))
		return
	}

	parts := []string{kind.Sprint(string(md.Type))}
	if md.Name != nil && *md.Name != "" {
		parts = append(parts, *md.Name)
	}
	switch md.Type {
	case mock.CategoryConstant, mock.CategoryCollection:
		parts = append(parts, value.Describe(md.Value))
	}
	if md.RefID != nil {
		parts = append(parts, ref.Sprintf("#%d", *md.RefID))
	}
	fmt.Fprintf(w, "%s%s\n", label, strings.Join(parts, " "))

	for _, m := range md.Members {
		writeNode(w, m.Node, m.Name, depth+1, kind, ref)
	}
}
