package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// emit writes v as indented JSON, or calls text for the human format.
func (a *app) emit(w io.Writer, v any, text func(w io.Writer)) error {
	if a.format == formatJSON {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}
