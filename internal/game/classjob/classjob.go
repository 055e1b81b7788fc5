// Package classjob holds the read-only class/job and phantom job reference
// catalogs that job commands are derived from.
package classjob

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// AcronymLength is the length of a class/job abbreviation.
const AcronymLength = 3

// ClassJob is one row of the class/job catalog.
//
// Precondition: rows with ID 0, an empty Abbreviation, or an empty Name are
// kept in the catalog but never get commands.
type ClassJob struct {
	ID           uint32 `yaml:"id"`
	Abbreviation string `yaml:"abbreviation"`
	Name         string `yaml:"name"`
}

// Commandable reports whether commands may be registered for the row.
func (c ClassJob) Commandable() bool {
	return c.ID != 0 && !isBlank(c.Abbreviation) && !isBlank(c.Name)
}

// Catalog indexes class/job rows by abbreviation.
type Catalog struct {
	rows      []ClassJob
	byAcronym map[string]int
}

// NewCatalog builds a Catalog over rows, preserving their order.
//
// Postcondition: ByAcronym resolves every non-empty abbreviation
// case-insensitively; when two rows share one, the first row wins.
func NewCatalog(rows []ClassJob) *Catalog {
	c := &Catalog{
		rows:      append([]ClassJob(nil), rows...),
		byAcronym: make(map[string]int, len(rows)),
	}
	for i, row := range c.rows {
		if isBlank(row.Abbreviation) {
			continue
		}
		key := foldKey(row.Abbreviation)
		if _, exists := c.byAcronym[key]; !exists {
			c.byAcronym[key] = i
		}
	}
	return c
}

// Rows returns a copy of all rows in catalog order.
func (c *Catalog) Rows() []ClassJob {
	return append([]ClassJob(nil), c.rows...)
}

// Len returns the number of rows.
func (c *Catalog) Len() int { return len(c.rows) }

// ByAcronym looks up a row by abbreviation, ignoring case.
//
// Postcondition: Returns the row and true, or the zero row and false.
func (c *Catalog) ByAcronym(acronym string) (ClassJob, bool) {
	i, ok := c.byAcronym[foldKey(acronym)]
	if !ok {
		return ClassJob{}, false
	}
	return c.rows[i], true
}

type classJobFile struct {
	ClassJobs []ClassJob `yaml:"class_jobs"`
}

// LoadClassJobs reads the class/job catalog from a YAML file with a
// top-level class_jobs list.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns the rows in file order or a non-nil error.
func LoadClassJobs(path string) ([]ClassJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading class job catalog %s: %w", path, err)
	}
	var f classJobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing class job catalog %s: %w", path, err)
	}
	if len(f.ClassJobs) == 0 {
		return nil, fmt.Errorf("class job catalog %s has no rows", path)
	}
	return f.ClassJobs, nil
}

func foldKey(s string) string {
	return cases.Fold().String(s)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
