package display

import (
	"io"

	"github.com/pterm/pterm"

	"github.com/teranos/replaydash/errors"
)

// Table writes rows under headers as a pterm table.
func Table(w io.Writer, headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
