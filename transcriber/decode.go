package transcriber

import (
	"fmt"
	"strings"
)

// Hypothesis is one candidate transcript returned by a model.
type Hypothesis struct {
	Text string
}

func (h Hypothesis) String() string { return h.Text }

// decode flattens a backend result to text. Hypothesis lists yield their
// first entry; anything unrecognized uses its string form.
func decode(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	case Hypothesis:
		return v.Text
	case *Hypothesis:
		if v == nil {
			return ""
		}
		return v.Text
	case []Hypothesis:
		if len(v) == 0 {
			return ""
		}
		return v[0].Text
	case []byte:
		return strings.TrimSpace(string(v))
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
