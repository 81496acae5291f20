// Package receipt renders a recorded sale as the plain-text slip handed to
// the customer.
package receipt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	models "point-of-sale/model"
)

const (
	width      = 40
	dateLayout = "2006-01-02 15:04:05"
)

var (
	banner  = strings.Repeat("=", width)
	divider = strings.Repeat("-", width)
)

// Receipt is a sale header and its item lines.
type Receipt struct {
	Sale  models.Sale
	Items []models.SaleDetail
}

// Render writes r in the till's fixed layout. Sale.CreatedAt is printed as
// given; convert it to the till's zone first.
func Render(w io.Writer, r Receipt) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, banner)
	fmt.Fprintln(bw, "         POS SYSTEM RECEIPT")
	fmt.Fprintln(bw, banner)
	fmt.Fprintf(bw, "Sale ID: %d\n", r.Sale.ID)
	fmt.Fprintf(bw, "Customer: %s\n", r.Sale.CustomerName)
	fmt.Fprintf(bw, "Date: %s\n", r.Sale.CreatedAt.Format(dateLayout))
	fmt.Fprintln(bw, divider)

	for _, it := range r.Items {
		fmt.Fprintf(bw, "%-20s %6s DA x%2d %7s DA\n",
			it.ProductName, it.UnitPrice.StringFixed(2), it.Quantity, it.Subtotal.StringFixed(2))
	}

	fmt.Fprintln(bw, divider)
	fmt.Fprintf(bw, "%-32s %7s DA\n", "TOTAL", r.Sale.Total.StringFixed(2))
	fmt.Fprintln(bw, banner)
	fmt.Fprintln(bw, "Thank you for your purchase!")

	return bw.Flush()
}

// WriteFile renders r to path, creating the parent directory.
func WriteFile(path string, r Receipt) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
