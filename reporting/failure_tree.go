package reporting

import (
	"strings"

	"github.com/ethereum-optimism/infra/op-reporter/types"
	"github.com/ethereum-optimism/infra/op-reporter/ui"
)

// failureNode is a test or suite on a branch that carries an error
type failureNode struct {
	suite *types.Suite
	test  *types.Test
}

func (n failureNode) label() string {
	if n.test != nil {
		if n.test.Name != "" {
			return n.test.Name
		}
		return n.test.ID
	}
	return n.suite.DisplayName()
}

// failingChildren returns the tests and suites below s that carry an error
func failingChildren(s *types.Suite) []failureNode {
	var nodes []failureNode
	for _, t := range s.Tests {
		if t.HasError() {
			nodes = append(nodes, failureNode{test: t})
		}
	}
	for _, child := range s.Suites {
		if types.HasError(child) {
			nodes = append(nodes, failureNode{suite: child})
		}
	}
	return nodes
}

// writeFailureTree prints the branches of the suite tree that lead to an
// error, e.g.
//
//	Failures in chrome:
//	└── unit
//	    ├── × broken: expected 1 to equal 2
//	    └── login (suite error: before hook failed)
func (r *Runner) writeFailureTree(root *types.Suite) {
	r.console.Writeln(ui.StyleBright, "Failures in "+root.DisplayName()+":")
	if root.Error != nil {
		r.console.Writeln(ui.StyleFailure, "suite error: "+firstLine(root.Error.Error()))
	}
	r.writeFailureBranch(root, 1, nil)
}

func (r *Runner) writeFailureBranch(s *types.Suite, depth int, parentIsLast []bool) {
	children := failingChildren(s)
	for i, child := range children {
		isLast := i == len(children)-1
		prefix := ui.BuildTreePrefix(depth, isLast, parentIsLast)

		if child.test != nil {
			r.console.Write(ui.StylePlain, prefix)
			r.console.Writeln(ui.StyleFailure, "× "+child.label()+": "+firstLine(child.test.Error.Error()))
			continue
		}

		r.console.Write(ui.StylePlain, prefix)
		if child.suite.Error != nil {
			r.console.Writeln(ui.StyleFailure, child.label()+" (suite error: "+firstLine(child.suite.Error.Error())+")")
		} else {
			r.console.Writeln(ui.StylePlain, child.label())
		}
		r.writeFailureBranch(child.suite, depth+1, append(append([]bool{}, parentIsLast...), isLast))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
