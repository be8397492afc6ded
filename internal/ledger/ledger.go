// Package ledger persists control point sets and registration metadata as
// CSV files, round-tripping losslessly so a saved registration can be
// reloaded and redone later.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"image-registrator/pkg/geometry"
)

// Minimum pairs required for a loadable entry, matching the registration
// minimum.
const minPairs = 4

var (
	ErrInvalidFormat = errors.New("not a recognized control point file")
	ErrTooFewPairs   = errors.New("control point file has fewer than 4 pairs")
)

// Entry is the persisted form of a control point set: the reference
// filename, one or more moving filenames (several for a batch), the canvas
// size the points assume, and the ordered pairs themselves.
type Entry struct {
	ReferenceName string
	MovingNames   []string
	Canvas        geometry.Size
	Pairs         []geometry.ControlPointPair
}

// fileHeader is the first cell of the first row and identifies the format.
const fileHeader = "registration control points"

// Write serializes the entry:
//
//	#,registration control points
//	reference,<filename>
//	moving,<filename>[,<filename>...]
//	canvas,<width>,<height>
//	index,ref_x,ref_y,mov_x,mov_y
//	1,<x>,<y>,<x>,<y>
//	...
//
// Coordinates are written with full float64 round-trip precision and at
// least two decimal places.
func Write(w io.Writer, entry Entry) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"#", fileHeader},
		{"reference", entry.ReferenceName},
		append([]string{"moving"}, entry.MovingNames...),
		{"canvas", strconv.Itoa(entry.Canvas.Width), strconv.Itoa(entry.Canvas.Height)},
		{"index", "ref_x", "ref_y", "mov_x", "mov_y"},
	}
	for _, pair := range entry.Pairs {
		records = append(records, []string{
			strconv.Itoa(pair.Index),
			formatCoord(pair.Reference.X),
			formatCoord(pair.Reference.Y),
			formatCoord(pair.Moving.X),
			formatCoord(pair.Moving.Y),
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing control points: %w", err)
	}
	return nil
}

// WriteFile saves the entry to path.
func WriteFile(path string, entry Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating control point file: %w", err)
	}
	defer f.Close()

	if err := Write(f, entry); err != nil {
		return err
	}
	return f.Close()
}

// Read parses an entry previously produced by Write. Extra trailing columns
// are tolerated; pair indices must run 1..N without gaps.
func Read(r io.Reader) (Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return Entry{}, fmt.Errorf("reading control points: %w", err)
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][1] != fileHeader {
		return Entry{}, ErrInvalidFormat
	}

	var entry Entry
	pairRows := false
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		switch rec[0] {
		case "reference":
			if len(rec) > 1 {
				entry.ReferenceName = rec[1]
			}
		case "moving":
			for _, name := range rec[1:] {
				if name != "" {
					entry.MovingNames = append(entry.MovingNames, name)
				}
			}
		case "canvas":
			if len(rec) < 3 {
				return Entry{}, fmt.Errorf("%w: malformed canvas row", ErrInvalidFormat)
			}
			w, err1 := strconv.Atoi(rec[1])
			h, err2 := strconv.Atoi(rec[2])
			if err1 != nil || err2 != nil {
				return Entry{}, fmt.Errorf("%w: malformed canvas row", ErrInvalidFormat)
			}
			entry.Canvas = geometry.Size{Width: w, Height: h}
		case "index":
			pairRows = true
		default:
			if !pairRows {
				continue // unknown metadata row, skip
			}
			pair, err := parsePairRow(rec)
			if err != nil {
				return Entry{}, err
			}
			if pair.Index != len(entry.Pairs)+1 {
				return Entry{}, fmt.Errorf("%w: pair index %d out of sequence", ErrInvalidFormat, pair.Index)
			}
			entry.Pairs = append(entry.Pairs, pair)
		}
	}

	if len(entry.Pairs) < minPairs {
		return Entry{}, fmt.Errorf("%w: got %d", ErrTooFewPairs, len(entry.Pairs))
	}
	return entry, nil
}

// ReadFile loads an entry from path.
func ReadFile(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, fmt.Errorf("opening control point file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func parsePairRow(rec []string) (geometry.ControlPointPair, error) {
	if len(rec) < 5 {
		return geometry.ControlPointPair{}, fmt.Errorf("%w: pair row has %d columns", ErrInvalidFormat, len(rec))
	}

	idx, err := strconv.Atoi(rec[0])
	if err != nil {
		return geometry.ControlPointPair{}, fmt.Errorf("%w: bad pair index %q", ErrInvalidFormat, rec[0])
	}

	coords := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return geometry.ControlPointPair{}, fmt.Errorf("%w: bad coordinate %q", ErrInvalidFormat, rec[i+1])
		}
		coords[i] = v
	}

	return geometry.ControlPointPair{
		Index:     idx,
		Reference: geometry.Point2D{X: coords[0], Y: coords[1]},
		Moving:    geometry.Point2D{X: coords[2], Y: coords[3]},
	}, nil
}

// formatCoord renders a coordinate with the shortest representation that
// parses back exactly, padded to at least two decimal places.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + ".00"
	}
	if len(s)-dot-1 < 2 {
		return s + "0"
	}
	return s
}
