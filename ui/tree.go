package ui

import (
	"strings"
	"unicode/utf8"
)

// Tree hierarchy symbols using box drawing characters
const (
	TreeBranch     = "├── " // Branch connector
	TreeLastBranch = "└── " // Last branch connector
	TreeContinue   = "│   " // Parent has more siblings below
	TreeIndent     = "    " // Parent was last, no vertical line needed

	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxVertical    = "│"
	BoxHorizontal  = "─"
)

// BuildTreePrefix generates the connector for a node at depth, given
// whether it is the last of its siblings and whether each ancestor was
// the last of its own siblings
func BuildTreePrefix(depth int, isLast bool, parentIsLast []bool) string {
	if depth == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(ancestorPrefix(depth, parentIsLast))
	if isLast {
		b.WriteString(TreeLastBranch)
	} else {
		b.WriteString(TreeBranch)
	}
	return b.String()
}

// BuildTreeContinuation returns the prefix for extra lines that belong to
// a node (an error message, a stack trace) so they line up under it
func BuildTreeContinuation(depth int, isLast bool, parentIsLast []bool) string {
	if depth == 0 {
		return ""
	}
	prefix := ancestorPrefix(depth, parentIsLast)
	if isLast {
		return prefix + TreeIndent
	}
	return prefix + TreeContinue
}

func ancestorPrefix(depth int, parentIsLast []bool) string {
	var b strings.Builder
	for i := 0; i < depth-1; i++ {
		if i < len(parentIsLast) && parentIsLast[i] {
			b.WriteString(TreeIndent)
		} else {
			b.WriteString(TreeContinue)
		}
	}
	return b.String()
}

// BuildBox draws lines inside a box. The box grows to fit the longest line
// when width is too small.
func BuildBox(lines []string, width int) string {
	for _, line := range lines {
		if n := utf8.RuneCountInString(line) + 4; n > width {
			width = n
		}
	}

	var b strings.Builder
	b.WriteString(BoxTopLeft + repeatString(BoxHorizontal, width-2) + BoxTopRight + "\n")
	for _, line := range lines {
		b.WriteString(buildBoxLine(line, width))
	}
	b.WriteString(BoxBottomLeft + repeatString(BoxHorizontal, width-2) + BoxBottomRight + "\n")
	return b.String()
}

// buildBoxLine pads content to the inner width of the box
func buildBoxLine(content string, width int) string {
	padding := width - 4 - utf8.RuneCountInString(content)
	return BoxVertical + " " + content + repeatString(" ", padding+1) + BoxVertical + "\n"
}

func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
