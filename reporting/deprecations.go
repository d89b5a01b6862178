package reporting

import (
	"fmt"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// deprecationSet remembers deprecation notices already printed, so each
// distinct (original, replacement, message) triple is shown once
type deprecationSet struct {
	seen map[types.Deprecation]struct{}
}

func newDeprecationSet() *deprecationSet {
	return &deprecationSet{seen: make(map[types.Deprecation]struct{})}
}

// add records d and reports whether it was new
func (s *deprecationSet) add(d types.Deprecation) bool {
	if _, ok := s.seen[d]; ok {
		return false
	}
	s.seen[d] = struct{}{}
	return true
}

func formatDeprecation(d types.Deprecation) string {
	msg := fmt.Sprintf("⚠︎ %s is deprecated.", d.Original)
	if d.Replacement != "" {
		msg += fmt.Sprintf(" Use %s instead.", d.Replacement)
	} else {
		msg += " There is no replacement."
	}
	if d.Message != "" {
		msg += " " + d.Message
	}
	return msg
}
