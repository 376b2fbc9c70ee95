package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var envPlaceholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// PathExist ..
func PathExist(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return true
}

func EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil && !os.IsExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

func RemoveDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", dir, err)
	}
	return nil
}

func IsNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// SplitList splits a comma separated flag value and drops blank items.
func SplitList(s string) []string {
	items := make([]string, 0)
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			items = append(items, v)
		}
	}
	return items
}

// GetGlobFiles expands every pattern and returns the matches in pattern order,
// each pattern's matches sorted by name. Duplicates are kept once.
func GetGlobFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	files := make([]string, 0)
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if matches == nil {
			return nil, errors.New(fmt.Sprintf("No files found at %s", p))
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

// ReplaceEnvVars replaces {{ VAR }} placeholders with environment values.
func ReplaceEnvVars(content string) string {
	return envPlaceholderRe.ReplaceAllStringFunc(content, func(placeholder string) string {
		varName := envPlaceholderRe.FindStringSubmatch(placeholder)[1]
		return os.Getenv(varName)
	})
}

// ParseIntList parses "1, 4,7" into ints.
func ParseIntList(s string) ([]int, error) {
	res := make([]int, 0)
	for _, v := range SplitList(s) {
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "not an integer: %s", v)
		}
		res = append(res, i)
	}
	return res, nil
}
