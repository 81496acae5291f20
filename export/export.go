// Package export writes the catalogue out for spreadsheets.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	models "point-of-sale/model"
)

var header = []string{"ID", "Barcode", "Name", "Price", "Stock"}

// WriteCSV writes a header row then one row per product, in the order given.
func WriteCSV(w io.Writer, products []models.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range products {
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Barcode,
			p.Name,
			p.Price.String(),
			strconv.Itoa(p.Stock),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
