package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteTable prints rows as an aligned terminal table.
func WriteTable(out io.Writer, rows []Row) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tWORKSHOP\tPINCODE\tLAT\tLON\tRADIUS_KM\tNRC_VIN_COUNT\tPRIORITY")
	_, _ = fmt.Fprintln(w, "----\t--------\t-------\t---\t---\t---------\t-------------\t--------")

	for _, r := range rows {
		name := r.WorkshopName
		if r := []rune(name); len(r) > 40 {
			name = string(r[:37]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.5f\t%.5f\t%g\t%d\t%s\n",
			r.Rank, name, r.Pincode, r.Lat, r.Lon, r.RadiusKM, r.Count, r.Priority)
	}
	return w.Flush()
}
