package category

import (
	"fmt"
	"strings"
)

type Category string

const (
	Fixed      Category = "fixed"
	Adjustable Category = "adjustable"
)

// All is the fixed set of loan-rate categories published by CFPB.
var All = []Category{Fixed, Adjustable}

func Parse(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParseList parses a comma separated list, dropping duplicates.
func ParseList(s string) ([]Category, error) {
	var out []Category
	seen := make(map[Category]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := Parse(part)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no categories in %q", s)
	}
	return out, nil
}

func (c Category) String() string { return string(c) }

// FeedFile is the file name of the category's yield table, e.g. YieldTableFixed.txt.
func (c Category) FeedFile() string {
	s := string(c)
	if s == "" {
		return ""
	}
	return "YieldTable" + strings.ToUpper(s[:1]) + s[1:] + ".txt"
}

// FeedURL joins the feed base URL and the category's file name.
func (c Category) FeedURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + c.FeedFile()
}

// RecordPartition names the store partition holding the category's weekly records.
func (c Category) RecordPartition() string { return "apor-weekly-" + string(c) }

// ArchivePartition names the store partition holding the category's raw feed archive.
func (c Category) ArchivePartition() string { return "apor-archive-" + string(c) }
