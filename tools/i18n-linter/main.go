// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks for missing or orphaned translation keys.
// It scans the Go source code for T, TL and tr calls and compares the keys
// against the YAML locale files to ensure consistency.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location stores the file and line number of a found key.
type Location struct {
	Filepath string
	Line     int
}

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

// keyCallRe matches T("key"), TL(lang, "key") and tr(lang, "key"). When
// the literal is followed by "+", as in tr(lang, "announce."+kind), it is a
// prefix and every key below it counts as used.
var keyCallRe = regexp.MustCompile(`\b(?:T|TL|tr)\(\s*(?:[A-Za-z_.]+\s*,\s*)?"([a-z_]+\.[a-z0-9_.]*)"(\s*\+)?`)

// Report is the result of one lint run.
type Report struct {
	Used     map[string][]Location
	Prefixes []string
	Missing  map[string][]string // locale file -> keys
	Orphaned []string
}

// Failed reports whether the run found errors. Orphans are warnings.
func (r Report) Failed() bool {
	for _, keys := range r.Missing {
		if len(keys) > 0 {
			return true
		}
	}
	return false
}

func main() {
	fmt.Println("🔍 Running i18n linter...")
	r, err := lint(projectRoot, localesDir)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	printReport(os.Stdout, r)
	if r.Failed() {
		os.Exit(1)
	}
}

// lint collects used keys under root and compares them with every locale in
// dir. The primary locale must define every used key; the other locales
// must define every key of the primary locale.
func lint(root, dir string) (Report, error) {
	r := Report{Missing: map[string][]string{}}
	used, prefixes, err := findUsedKeys(root)
	if err != nil {
		return r, fmt.Errorf("error finding used keys: %w", err)
	}
	r.Used, r.Prefixes = used, prefixes

	primaryPath := filepath.Join(dir, primaryLocale)
	primary, err := loadKeysFromLocale(primaryPath)
	if err != nil {
		return r, fmt.Errorf("error loading primary locale %q: %w", primaryLocale, err)
	}
	for key := range used {
		if _, ok := primary[key]; !ok {
			r.Missing[primaryPath] = append(r.Missing[primaryPath], key)
		}
	}
	for key := range primary {
		if _, ok := used[key]; ok {
			continue
		}
		if hasPrefix(key, prefixes) {
			continue
		}
		r.Orphaned = append(r.Orphaned, key)
	}
	sort.Strings(r.Orphaned)

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return r, err
	}
	for _, file := range files {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return r, fmt.Errorf("error loading %s: %w", file, err)
		}
		for key := range primary {
			if _, ok := keys[key]; !ok {
				r.Missing[file] = append(r.Missing[file], key)
			}
		}
	}
	for file := range r.Missing {
		sort.Strings(r.Missing[file])
	}
	return r, nil
}

func hasPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func printReport(w io.Writer, r Report) {
	fmt.Fprintf(w, "✅ Found %d translation keys and %d dynamic prefixes in source code.\n\n", len(r.Used), len(r.Prefixes))

	fmt.Fprintln(w, "--- Checking for Missing Keys ---")
	files := make([]string, 0, len(r.Missing))
	for f := range r.Missing {
		files = append(files, f)
	}
	sort.Strings(files)
	missing := false
	for _, f := range files {
		for _, key := range r.Missing[f] {
			where := ""
			if locs := r.Used[key]; len(locs) > 0 {
				where = fmt.Sprintf(" (used in %s:%d)", locs[0].Filepath, locs[0].Line)
			}
			fmt.Fprintf(w, "  - Missing in %s: %s%s\n", f, key, where)
			missing = true
		}
	}
	if !missing {
		fmt.Fprintln(w, "  ✨ None found.")
	}

	fmt.Fprintln(w, "\n--- Checking for Orphaned Keys (in primary locale but not used in code) ---")
	for _, key := range r.Orphaned {
		fmt.Fprintf(w, "  - Orphaned: %s\n", key)
	}
	if len(r.Orphaned) == 0 {
		fmt.Fprintln(w, "  ✨ None found.")
	}

	fmt.Fprintln(w, "\n--- Linter Finished ---")
	switch {
	case r.Failed():
		fmt.Fprintln(w, "❌ Found issues that need to be addressed.")
	case len(r.Orphaned) > 0:
		fmt.Fprintln(w, "⚠️  Found orphaned keys. Please consider removing them.")
	default:
		fmt.Fprintln(w, "✅ All translation files are consistent!")
	}
}

// findUsedKeys scans non-test .go files for translation calls.
func findUsedKeys(root string) (map[string][]Location, []string, error) {
	keys := make(map[string][]Location)
	prefixSet := make(map[string]struct{})

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			switch info.Name() {
			case "tools", "_examples", ".git":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(string(content), "\n") {
			for _, m := range keyCallRe.FindAllStringSubmatch(line, -1) {
				if m[2] != "" {
					prefixSet[m[1]] = struct{}{}
					continue
				}
				keys[m[1]] = append(keys[m[1]], Location{Filepath: path, Line: i + 1})
			}
		}
		return nil
	})

	prefixes := make([]string, 0, len(prefixSet))
	for p := range prefixSet {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return keys, prefixes, err
}

// loadKeysFromLocale reads a YAML file and returns a flat map of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}

	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts a nested map into a flat map with dot-separated
// keys. Keys that already contain dots are kept as they are.
func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			newPrefix := k
			if prefix != "" {
				newPrefix = prefix + "." + k
			}
			flattenYAML(newPrefix, val, keys)
		}
	case []interface{}:
		for i, val := range v {
			newPrefix := fmt.Sprintf("%s[%d]", prefix, i)
			flattenYAML(newPrefix, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
