package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/viant/hotelsearch/geo"
)

// ReadText parses the hotels.txt format, one hotel per line:
//
//	brand,name,x,y,price,rating
//
// Ids are assigned from line order starting at 1. City is taken from the
// second word of generated names when present.
func ReadText(r io.Reader) ([]Hotel, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6
	reader.TrimLeadingSpace = true

	var hotels []Hotel
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return hotels, nil
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line, err)
		}
		h, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line, err)
		}
		h.ID = int64(len(hotels) + 1)
		hotels = append(hotels, h)
	}
}

func parseRecord(record []string) (Hotel, error) {
	x, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return Hotel{}, fmt.Errorf("invalid x %q", record[2])
	}
	y, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return Hotel{}, fmt.Errorf("invalid y %q", record[3])
	}
	price, err := strconv.Atoi(record[4])
	if err != nil {
		return Hotel{}, fmt.Errorf("invalid price %q", record[4])
	}
	rating, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return Hotel{}, fmt.Errorf("invalid rating %q", record[5])
	}
	loc := geo.Pt(x, y)
	if !loc.Valid() {
		return Hotel{}, fmt.Errorf("location %v is not finite", loc)
	}
	h := Hotel{
		Brand:    record[0],
		Name:     record[1],
		Location: loc,
		Price:    price,
		Rating:   rating,
		Capacity: DefaultCapacity,
	}
	if fields := strings.Fields(h.Name); len(fields) > 1 && fields[0] == h.Brand {
		h.City = fields[1]
	}
	return h, nil
}

// WriteText writes hotels in the hotels.txt format.
func WriteText(w io.Writer, hotels []Hotel) error {
	writer := csv.NewWriter(w)
	for _, h := range hotels {
		record := []string{
			h.Brand,
			h.Name,
			strconv.FormatFloat(h.Location.X, 'f', 2, 64),
			strconv.FormatFloat(h.Location.Y, 'f', 2, 64),
			strconv.Itoa(h.Price),
			strconv.FormatFloat(h.Rating, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
