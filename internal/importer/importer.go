// Package importer turns bank and card statement exports into canonical
// ledger transactions.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// Record is one validated raw row of a statement.
type Record interface {
	Line() int
	Date() time.Time
	Summary() string
}

// Adapter parses one statement format and maps its records.
type Adapter interface {
	Format() string
	// Parse validates the whole file into records, in processing order.
	// Malformed input returns an error wrapping ErrParse.
	Parse(r io.Reader) ([]Record, error)
	// Map returns a SkipError for records that should not be imported.
	Map(rc *RunContext, rec Record) (model.Transaction, error)
}

// Registry holds named adapters.
type Registry struct {
	adapters map[string]Adapter
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name   string
	Path   string
	Size   int64
	Format string // detected format, empty if unknown
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Panics on duplicate format.
func (r *Registry) Register(a Adapter) {
	key := strings.ToLower(a.Format())
	if _, ok := r.adapters[key]; ok {
		panic("duplicate adapter format: " + key)
	}
	r.adapters[key] = a
}

// Get returns the adapter for format, or nil.
func (r *Registry) Get(format string) Adapter {
	return r.adapters[strings.ToLower(format)]
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in adapters anchored
// to loc.
func DefaultRegistry(loc *time.Location) *Registry {
	r := NewRegistry()
	r.Register(&BankJSONAdapter{Location: loc})
	r.Register(&CardAAdapter{Location: loc})
	r.Register(&CardBAdapter{Location: loc})
	return r
}

// Detect guesses the format of a statement from its first bytes: a JSON
// object is bank JSON, otherwise the header column count picks the card
// layout.
func Detect(head []byte) (string, error) {
	trimmed := bytes.TrimLeft(head, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty file")
	}
	if trimmed[0] == '{' {
		return FormatBankJSON, nil
	}
	cr := csv.NewReader(bytes.NewReader(trimmed))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return "", fmt.Errorf("reading header: %w", err)
	}
	switch len(header) {
	case cardAMinNumFields:
		return FormatCardA, nil
	case cardBMinNumFields:
		return FormatCardB, nil
	default:
		return "", fmt.Errorf("unrecognized header with %d columns", len(header))
	}
}

// DetectFile runs Detect on the start of the file at path.
func DetectFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return Detect(head)
}

// importDir is the subdirectory for statement files.
const importDir = "import"

// processedDir is the subdirectory for imported statement files.
const processedDir = "import/processed"

// Scan returns the CSV and JSON files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".csv" && ext != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		path := filepath.Join(dir, e.Name())
		format, _ := DetectFile(path)
		files = append(files, FileInfo{
			Name:   e.Name(),
			Path:   path,
			Size:   info.Size(),
			Format: format,
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
