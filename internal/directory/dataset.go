package directory

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// Format identifies the layout of a reference dataset.
type Format string

const (
	// FormatCIKLookup is EDGAR's cik-lookup-data.txt: one "NAME:CIK:" per line.
	FormatCIKLookup Format = "cik-lookup"
	// FormatTickers is EDGAR's company_tickers.json.
	FormatTickers Format = "tickers"
)

// maxLineBytes bounds a single dataset line.
const maxLineBytes = 1 << 20

// Dataset parse errors.
var (
	ErrUnknownFormat = errors.New("unknown dataset format")
	ErrEmptyDataset  = errors.New("dataset contains no companies")
	ErrSchema        = errors.New("dataset does not match schema")
)

// tickersSchema describes company_tickers.json.
const tickersSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["cik_str", "title"],
    "properties": {
      "cik_str": {"type": "integer", "minimum": 0},
      "ticker":  {"type": "string"},
      "title":   {"type": "string"}
    }
  }
}`

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCIKLookup:
		return FormatCIKLookup, nil
	case FormatTickers:
		return FormatTickers, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Parse decodes a dataset into records in dataset order.
func Parse(format Format, data []byte) ([]Record, error) {
	var (
		records []Record
		err     error
	)

	switch format {
	case FormatCIKLookup:
		records, err = parseCIKLookup(bytes.NewReader(data))
	case FormatTickers:
		records, err = parseTickers(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	return records, nil
}

// parseCIKLookup reads "NAME:CIK:" lines. Names may contain colons, so the
// CIK is the field between the last two colons. Lines that do not parse
// are skipped.
func parseCIKLookup(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	var records []Record

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if !utf8.ValidString(line) {
			line = latin1ToUTF8(line)
		}

		line = strings.TrimSuffix(line, ":")

		sep := strings.LastIndexByte(line, ':')
		if sep <= 0 {
			continue
		}

		cik, ok := CanonicalCIK(line[sep+1:])
		if !ok {
			continue
		}

		records = append(records, Record{Name: line[:sep], CIK: cik})
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, fmt.Errorf("scan cik lookup data: %w", scanErr)
	}

	return records, nil
}

// parseTickers validates company_tickers.json and returns its entries
// ordered by their numeric object keys.
func parseTickers(data []byte) ([]Record, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(tickersSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate tickers dataset: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			details = append(details, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(details, "; "))
	}

	var entries map[string]tickerEntry

	unmarshalErr := json.Unmarshal(data, &entries)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("decode tickers dataset: %w", unmarshalErr)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		ki, errI := strconv.Atoi(keys[i])
		kj, errJ := strconv.Atoi(keys[j])

		if errI != nil || errJ != nil {
			return keys[i] < keys[j]
		}

		return ki < kj
	})

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		entry := entries[key]
		records = append(records, Record{Name: entry.Title, CIK: FormatCIK(entry.CIK)})
	}

	return records, nil
}

// latin1ToUTF8 reinterprets every byte as a Latin-1 code point.
func latin1ToUTF8(s string) string {
	runes := make([]rune, len(s))
	for i := range len(s) {
		runes[i] = rune(s[i])
	}

	return string(runes)
}
