package config

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
	"github.com/cognicore/meiyo/pkg/meiyo/internalerr"
)

// Loader reads the dictionary sources from disk. Empty paths yield empty
// collections.
type Loader struct {
	DictionaryPath string
	WhitelistPath  string
	SurnamesPath   string
	Logger         *slog.Logger
}

// Load reads every configured source.
func (l *Loader) Load() (dictionary.Source, error) {
	var src dictionary.Source
	log := l.logger()

	if l.DictionaryPath != "" {
		terms, err := LoadDictionary(l.DictionaryPath, log)
		if err != nil {
			return src, fmt.Errorf("load dictionary: %w", err)
		}
		src.Terms = terms
	}

	if l.WhitelistPath != "" {
		wl, err := LoadWhitelist(l.WhitelistPath, log)
		if err != nil {
			return src, fmt.Errorf("load whitelist: %w", err)
		}
		src.Whitelist = wl
	}

	if l.SurnamesPath != "" {
		sn, err := LoadSurnames(l.SurnamesPath, log)
		if err != nil {
			return src, fmt.Errorf("load surnames: %w", err)
		}
		src.Surnames = sn
	}

	return src, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", internalerr.ErrMissingResource, path)
	}
	return data, err
}

// LoadDictionary reads a JSON dictionary document. Accepted shapes:
//
//	["term", ...]
//	{"offensive_words": ["term", ...]}
//	{"categories": {"insults": ["term", ...], ...}}
//	{"insults": ["term", ...], "threats": [...]}
func LoadDictionary(path string, log *slog.Logger) (map[string][]string, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return ParseDictionary(data, log)
}

// ParseDictionary decodes a dictionary document. Non-string and blank
// entries are skipped and logged.
func ParseDictionary(data []byte, log *slog.Logger) (map[string][]string, error) {
	if log == nil {
		log = slog.Default()
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrMalformedEntry, err)
	}

	out := map[string][]string{}
	switch v := doc.(type) {
	case []any:
		out[string(dictionary.Uncategorized)] = stringsOf(v, string(dictionary.Uncategorized), log)
	case map[string]any:
		if cats, ok := v["categories"].(map[string]any); ok {
			v = cats
		} else if len(v) == 1 {
			for key, val := range v {
				if arr, ok := val.([]any); ok && !isKnownCategory(key) {
					out[string(dictionary.Uncategorized)] = stringsOf(arr, key, log)
					return out, nil
				}
			}
		}
		for cat, val := range v {
			arr, ok := val.([]any)
			if !ok {
				log.Warn("skipping non-list dictionary category", "category", cat)
				continue
			}
			out[cat] = stringsOf(arr, cat, log)
		}
	default:
		return nil, fmt.Errorf("%w: dictionary must be a list or an object", internalerr.ErrMalformedEntry)
	}
	return out, nil
}

func isKnownCategory(name string) bool {
	switch dictionary.Category(name) {
	case dictionary.Insults, dictionary.Defamation, dictionary.Harassment,
		dictionary.Threats, dictionary.Ambiguous, dictionary.Names:
		return true
	}
	return false
}

func stringsOf(arr []any, where string, log *slog.Logger) []string {
	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			log.Warn("skipping malformed dictionary entry",
				"source", where, "index", i, "error", internalerr.ErrMalformedEntry)
			continue
		}
		out = append(out, s)
	}
	return out
}

// LoadWhitelist reads a JSON array, a YAML list or newline-delimited text,
// chosen by file extension.
func LoadWhitelist(path string, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONList(data, path, log)
	case ".yaml", ".yml":
		var items []any
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrMalformedEntry, err)
		}
		return stringsOf(items, path, log), nil
	default:
		return parseLines(data), nil
	}
}

// LoadSurnames reads CSV (first column), a JSON array or newline text.
// A directory loads every file inside it in name order.
func LoadSurnames(path string, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", internalerr.ErrMissingResource, path)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return loadSurnameFile(path, log)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		sn, err := loadSurnameFile(filepath.Join(path, name), log)
		if err != nil {
			return nil, err
		}
		out = append(out, sn...)
	}
	return out, nil
}

func loadSurnameFile(path string, log *slog.Logger) ([]string, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSVFirstColumn(data, path, log)
	case ".json":
		return parseJSONList(data, path, log)
	default:
		return parseLines(data), nil
	}
}

func parseJSONList(data []byte, path string, log *slog.Logger) ([]string, error) {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrMalformedEntry, err)
	}
	return stringsOf(items, path, log), nil
}

// csvHeaders are first-row values treated as a header line.
var csvHeaders = map[string]bool{"surname": true, "name": true, "姓": true, "名字": true}

func parseCSVFirstColumn(data []byte, path string, log *slog.Logger) ([]string, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	var out []string
	for row := 0; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("skipping malformed surname row", "source", path, "row", row, "error", err)
			continue
		}
		if len(rec) == 0 {
			continue
		}
		v := strings.TrimSpace(rec[0])
		if v == "" || (row == 0 && csvHeaders[strings.ToLower(v)]) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func parseLines(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
