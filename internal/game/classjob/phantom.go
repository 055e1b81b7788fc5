package classjob

import (
	"fmt"
	"os"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hbollon/go-edlib"
	"gopkg.in/yaml.v3"
)

// PhantomAcronymLength is the length of a phantom job acronym.
const PhantomAcronymLength = 4

// OccultCrescentUseID is the territory intended-use id of the only zone where
// phantom jobs can be switched.
const OccultCrescentUseID uint16 = 61

// suggestThreshold is the minimum Levenshtein similarity for a suggestion;
// one substitution in a four letter acronym scores 0.75.
const suggestThreshold = 0.75

// suggestions memoizes SuggestPhantomAcronym by upper-cased input; an empty
// value records that no acronym was close enough.
var suggestions = mustLRU(256)

func mustLRU(size int) *lru.Cache[string, string] {
	c, err := lru.New[string, string](size)
	if err != nil {
		panic(fmt.Sprintf("classjob: creating suggestion cache: %v", err))
	}
	return c
}

// PhantomJob is one row of the phantom job catalog.
type PhantomJob struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
}

// phantomAcronyms maps the catalog display name to its command acronym.
var phantomAcronyms = map[string]string{
	"Phantom Freelancer": "PFRE",
	"Phantom Knight":     "PKNT",
	"Phantom Berserker":  "PBER",
	"Phantom Monk":       "PMNK",
	"Phantom Ranger":     "PRNG",
	"Phantom Samurai":    "PSAM",
	"Phantom Bard":       "PBRD",
	"Phantom Geomancer":  "PGEO",
	"Phantom Time Mage":  "PTIM",
	"Phantom Cannoneer":  "PCAN",
	"Phantom Chemist":    "PCHM",
	"Phantom Oracle":     "PORC",
	"Phantom Thief":      "PTHF",
}

// phantomNames is the inverse of phantomAcronyms.
var phantomNames = func() map[string]string {
	m := make(map[string]string, len(phantomAcronyms))
	for name, acr := range phantomAcronyms {
		m[acr] = name
	}
	return m
}()

// PhantomAcronym returns the acronym for an exact phantom job name.
func PhantomAcronym(name string) (string, bool) {
	acr, ok := phantomAcronyms[name]
	return acr, ok
}

// PhantomName returns the phantom job name for an acronym, ignoring case.
func PhantomName(acronym string) (string, bool) {
	name, ok := phantomNames[strings.ToUpper(acronym)]
	return name, ok
}

// PhantomAcronyms returns every known acronym in sorted order.
func PhantomAcronyms() []string {
	out := make([]string, 0, len(phantomNames))
	for acr := range phantomNames {
		out = append(out, acr)
	}
	sort.Strings(out)
	return out
}

// SuggestPhantomAcronym returns the known acronym closest to input when it is
// similar enough to be a likely typo.
//
// Postcondition: Returns ("", false) for exact matches, wrong-length input,
// or input with no acronym above the similarity threshold.
func SuggestPhantomAcronym(input string) (string, bool) {
	input = strings.ToUpper(input)
	if len(input) != PhantomAcronymLength {
		return "", false
	}
	if _, exact := phantomNames[input]; exact {
		return "", false
	}
	if best, ok := suggestions.Get(input); ok {
		return best, best != ""
	}
	best := closestPhantomAcronym(input)
	suggestions.Add(input, best)
	return best, best != ""
}

func closestPhantomAcronym(input string) string {
	best, bestScore := "", float32(0)
	for _, acr := range PhantomAcronyms() {
		score, err := edlib.StringsSimilarity(input, acr, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = acr, score
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}

// PhantomCatalog holds the phantom job rows supplied by the host.
type PhantomCatalog struct {
	rows []PhantomJob
}

// NewPhantomCatalog builds a PhantomCatalog over rows.
func NewPhantomCatalog(rows []PhantomJob) *PhantomCatalog {
	return &PhantomCatalog{rows: append([]PhantomJob(nil), rows...)}
}

// Rows returns a copy of all rows in catalog order.
func (c *PhantomCatalog) Rows() []PhantomJob {
	return append([]PhantomJob(nil), c.rows...)
}

// ByName finds the first row whose name equals name, ignoring case.
func (c *PhantomCatalog) ByName(name string) (PhantomJob, bool) {
	for _, row := range c.rows {
		if strings.EqualFold(row.Name, name) {
			return row, true
		}
	}
	return PhantomJob{}, false
}

type phantomJobFile struct {
	PhantomJobs []PhantomJob `yaml:"phantom_jobs"`
}

// LoadPhantomJobs reads the phantom job catalog from a YAML file with a
// top-level phantom_jobs list.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns the rows in file order or a non-nil error.
func LoadPhantomJobs(path string) ([]PhantomJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phantom job catalog %s: %w", path, err)
	}
	var f phantomJobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing phantom job catalog %s: %w", path, err)
	}
	if len(f.PhantomJobs) == 0 {
		return nil, fmt.Errorf("phantom job catalog %s has no rows", path)
	}
	return f.PhantomJobs, nil
}
