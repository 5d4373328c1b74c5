package bugdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// Provider serves bug records loaded from a JSON file.
type Provider struct {
	path string

	once sync.Once
	bugs []Bug
	err  error
}

// NewProvider creates a provider for path. The file is read on first use.
func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// FromBugs creates a provider over records already in memory.
func FromBugs(bugs []Bug) *Provider {
	p := &Provider{bugs: bugs}
	p.once.Do(func() {})
	return p
}

// LoadBugs reads every bug in a bugs.json file.
func LoadBugs(path string) ([]Bug, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided test data file
	if err != nil {
		return nil, core.NewTestDataError(fmt.Sprintf("cannot read test data %s", path), err)
	}
	var bugs []Bug
	if err := json.Unmarshal(data, &bugs); err != nil {
		return nil, core.NewTestDataError(fmt.Sprintf("invalid test data %s", path), err)
	}
	return bugs, nil
}

func (p *Provider) load() ([]Bug, error) {
	p.once.Do(func() {
		p.bugs, p.err = LoadBugs(p.path)
	})
	return p.bugs, p.err
}

// Bugs returns every record.
func (p *Provider) Bugs() ([]Bug, error) {
	bugs, err := p.load()
	if err != nil {
		return nil, err
	}
	return append([]Bug(nil), bugs...), nil
}

// Bug returns the record at index.
func (p *Provider) Bug(index int) (Bug, error) {
	bugs, err := p.load()
	if err != nil {
		return Bug{}, err
	}
	if index < 0 || index >= len(bugs) {
		return Bug{}, core.NewTestDataError(
			fmt.Sprintf("bug index %d out of range (have %d bugs)", index, len(bugs)), nil)
	}
	return bugs[index], nil
}

// ByID returns the record with the given bugId.
func (p *Provider) ByID(id int) (Bug, error) {
	bugs, err := p.load()
	if err != nil {
		return Bug{}, err
	}
	for _, b := range bugs {
		if b.BugID == id {
			return b, nil
		}
	}
	return Bug{}, core.NewTestDataError(fmt.Sprintf("no bug with id %d", id), nil)
}

// FilterByStatus returns records whose status matches s.
func (p *Provider) FilterByStatus(s Status) ([]Bug, error) {
	bugs, err := p.load()
	if err != nil {
		return nil, err
	}
	var out []Bug
	for _, b := range bugs {
		if v, ok := b.StatusValue(); ok && v == s {
			out = append(out, b)
		}
	}
	return out, nil
}

// Count returns the number of records.
func (p *Provider) Count() (int, error) {
	bugs, err := p.load()
	return len(bugs), err
}
