package cli

import (
	"fmt"
	"io"
	"strings"

	"invoicing/internal/core"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func printClients(w io.Writer, clients []core.Client) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "  %-36s  %-22s  %s\n", "ID", "NAME", "EMAIL")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	if len(clients) == 0 {
		fmt.Fprintln(w, "  No clients found.")
	}
	for _, c := range clients {
		fmt.Fprintf(w, "  %-36s  %-22s  %s\n", c.ID, truncate(c.Name, 22), deref(c.Email))
	}
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func printInvoices(w io.Writer, invoices []core.InvoiceSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 90))
	fmt.Fprintf(w, "  %-12s %-10s %-7s %-24s %16s  %s\n", "NUMBER", "ISSUED", "STATUS", "CLIENT", "TOTAL", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	if len(invoices) == 0 {
		fmt.Fprintln(w, "  No invoices found.")
	}
	for _, inv := range invoices {
		fmt.Fprintf(w, "  %-12s %-10s %-7s %-24s %16s  %s\n",
			inv.InvoiceNumber, inv.IssueDate, inv.Status, truncate(deref(inv.ClientName), 24),
			inv.Currency+" "+inv.Total.StringFixed(core.MinorUnitPlaces(inv.Currency)), inv.ID)
	}
	fmt.Fprintln(w, strings.Repeat("=", 90))
}

func printInvoice(w io.Writer, agg *core.InvoiceAggregate) {
	inv := agg.Invoice
	places := core.MinorUnitPlaces(inv.Currency)

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "  INVOICE %s  [%s]\n", inv.InvoiceNumber, strings.ToUpper(string(inv.Status)))
	fmt.Fprintln(w, strings.Repeat("=", 72))
	if agg.Client != nil {
		fmt.Fprintf(w, "  Client   : %s\n", agg.Client.Name)
	} else {
		fmt.Fprintf(w, "  Client   : (deleted)\n")
	}
	fmt.Fprintf(w, "  Issued   : %s\n", inv.IssueDate)
	if inv.DueDate != nil {
		fmt.Fprintf(w, "  Due      : %s\n", *inv.DueDate)
	}
	fmt.Fprintf(w, "  Share    : /i/%s\n", inv.PublicToken)
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintf(w, "  %-36s %8s %12s %12s\n", "DESCRIPTION", "QTY", "UNIT", "AMOUNT")
	for _, it := range agg.Items {
		fmt.Fprintf(w, "  %-36s %8s %12s %12s\n",
			truncate(it.Description, 36), it.Qty.String(), it.UnitPrice.StringFixed(places), it.LineTotal.StringFixed(places))
	}
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintf(w, "  %58s %12s\n", "Subtotal", inv.Subtotal.StringFixed(places))
	fmt.Fprintf(w, "  %58s %12s\n", "Tax", inv.Tax.StringFixed(places))
	fmt.Fprintf(w, "  %58s %12s\n", "Total "+inv.Currency, inv.Total.StringFixed(places))
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

func printStats(w io.Writer, s *core.DashboardStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 48))
	fmt.Fprintf(w, "  Clients  : %d\n", s.TotalClients)
	fmt.Fprintf(w, "  Invoices : %d\n", s.TotalInvoices)
	if s.NextInvoiceNumber != "" {
		fmt.Fprintf(w, "  Next no. : %s\n", s.NextInvoiceNumber)
	}
	for _, st := range []core.InvoiceStatus{core.StatusDraft, core.StatusSent, core.StatusPaid, core.StatusVoid} {
		fmt.Fprintf(w, "    %-7s %d\n", st, s.ByStatus[st])
	}
	fmt.Fprintln(w, strings.Repeat("-", 48))
	for _, a := range s.Outstanding {
		fmt.Fprintf(w, "  Outstanding %s %s\n", a.Currency, a.Amount.StringFixed(core.MinorUnitPlaces(a.Currency)))
	}
	for _, a := range s.Paid {
		fmt.Fprintf(w, "  Paid        %s %s\n", a.Currency, a.Amount.StringFixed(core.MinorUnitPlaces(a.Currency)))
	}
	fmt.Fprintln(w, strings.Repeat("=", 48))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
