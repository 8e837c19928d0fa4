package cli

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophchat/internal/client/sidebar"
)

// writeView prints the sidebar: folders first, then the date groups of the
// selected folder.
//
//	> [-] Work (2)                folder-4
//	      Today
//	    * Kickoff: Hello there    conv-7
func writeView(w io.Writer, v sidebar.View) {
	if v.State == sidebar.NoUserSelected {
		fmt.Fprintln(w, "Not logged in")
		return
	}

	empty := false
	for _, f := range v.Folders {
		sel := " "
		if f.Selected {
			sel = ">"
			empty = f.Count == 0
		}
		exp := "+"
		if f.Expanded {
			exp = "-"
		}
		name := f.Name
		if f.Default {
			name += " (default)"
		}
		fmt.Fprintf(w, "%s [%s] %-30s %3d  %s\n", sel, exp, name, f.Count, f.ID)
	}

	for _, g := range v.Groups {
		fmt.Fprintf(w, "      %s\n", g.Label)
		for _, c := range g.Conversations {
			sel := " "
			if c.Selected {
				sel = "*"
			}
			line := c.Title
			if c.Preview != "" {
				line += ": " + c.Preview
			}
			fmt.Fprintf(w, "    %s %-40s %s\n", sel, line, c.ID)
		}
	}

	if empty {
		fmt.Fprintln(w, "      (no conversations)")
	}
	if v.Error != "" {
		fmt.Fprintln(w, "!", v.Error)
	}
}
