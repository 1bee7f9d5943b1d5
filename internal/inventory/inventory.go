// Package inventory lists the QA suites and the case IDs each one covers.
package inventory

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Case is a single numbered test case.
type Case struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// Suite groups cases exercising one area of the vault database.
type Suite struct {
	Name    string `yaml:"name"`
	Package string `yaml:"package"`
	Cases   []Case `yaml:"cases"`
}

var catalog = []Suite{
	{
		Name:    "CRUD Operations",
		Package: "internal/harness",
		Cases: []Case{
			{ID: "SQL-001", Title: "Create Record and Read"},
			{ID: "SQL-002", Title: "Update Record"},
			{ID: "SQL-003", Title: "Delete Cascade"},
		},
	},
	{
		Name:    "Vault Operations",
		Package: "internal/harness",
		Cases: []Case{
			{ID: "SQL-004", Title: "Encrypted Data"},
			{ID: "SQL-005", Title: "Metadata Tracking"},
			{ID: "SQL-006", Title: "Key Management"},
			{ID: "SQL-007", Title: "Tampering Detection"},
			{ID: "SQL-008", Title: "Integrity Checksum"},
		},
	},
	{
		Name:    "Data Integrity",
		Package: "internal/harness",
		Cases: []Case{
			{ID: "INT-001", Title: "Unique Constraint Enforcement"},
			{ID: "INT-002", Title: "Foreign Key Constraint"},
			{ID: "INT-003", Title: "Sequential Update Consistency"},
		},
	},
	{
		Name:    "Performance",
		Package: "internal/harness",
		Cases: []Case{
			{ID: "PERF-001", Title: "Write Performance"},
			{ID: "PERF-002", Title: "Read Performance"},
		},
	},
	{
		Name:    "Schema Validation",
		Package: "internal/harness",
		Cases: []Case{
			{ID: "SCH-001", Title: "Table Structure"},
			{ID: "SCH-002", Title: "Index Verification"},
			{ID: "SCH-003", Title: "Schema Migration"},
		},
	},
	{
		Name:    "CLI Commands",
		Package: "internal/harness",
		Cases: []Case{
			{ID: "CLI-001", Title: "CLI Export"},
			{ID: "CLI-002", Title: "CLI Bulk Delete"},
			{ID: "CLI-003", Title: "CLI Stats"},
			{ID: "CLI-004", Title: "CLI Query"},
		},
	},
	{
		Name:    "API",
		Package: "internal/harness",
		Cases: []Case{
			{ID: "API-001", Title: "User Creation via API Workflow"},
			{ID: "API-002", Title: "Retrieval and Serialized Output"},
			{ID: "API-003", Title: "API Error Handling for Invalid Data"},
		},
	},
	{
		Name:    "Safe Query Wrapper",
		Package: "internal/dbutil",
		Cases: []Case{
			{ID: "FW-001", Title: "Fetch One or Fail"},
			{ID: "FW-002", Title: "Fetch Value or Fail"},
			{ID: "FW-003", Title: "Fetch All or Empty"},
			{ID: "FW-004", Title: "Execute or Report Failure"},
		},
	},
}

// Suites returns a copy of the catalog in display order.
func Suites() []Suite {
	out := make([]Suite, len(catalog))
	for i, s := range catalog {
		s.Cases = append([]Case(nil), s.Cases...)
		out[i] = s
	}
	return out
}

// Lookup finds the case with id and the suite it belongs to.
func Lookup(id string) (Suite, Case, bool) {
	for _, s := range catalog {
		for _, c := range s.Cases {
			if strings.EqualFold(c.ID, id) {
				return s, c, true
			}
		}
	}
	return Suite{}, Case{}, false
}

// Format selects how Render writes the catalog.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// Render writes suites to w in the given format.
func Render(w io.Writer, suites []Suite, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]Suite{"suites": suites}); err != nil {
			return fmt.Errorf("failed to encode inventory: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		total := 0
		for _, s := range suites {
			if _, err := fmt.Fprintf(w, "%s (%s)\n", s.Name, s.Package); err != nil {
				return err
			}
			for _, c := range s.Cases {
				if _, err := fmt.Fprintf(w, "  %-9s %s\n", c.ID, c.Title); err != nil {
					return err
				}
			}
			total += len(s.Cases)
		}
		_, err := fmt.Fprintf(w, "%d suites, %d cases\n", len(suites), total)
		return err
	default:
		return fmt.Errorf("unsupported inventory format %q", format)
	}
}
