package runs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const runPrefix = "run_"

// allocAttempts bounds the create-or-retry loop so a pathological runs
// directory cannot spin forever.
const allocAttempts = 10000

// Allocator hands out run directories under one runs root. Allocation is
// safe under concurrent planners: the os.Mkdir create is the atomic claim.
type Allocator struct {
	root string
}

// NewAllocator returns an allocator rooted at root, creating it if needed.
func NewAllocator(root string) (*Allocator, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating runs root %s: %w", root, err)
	}
	return &Allocator{root: root}, nil
}

// Next claims the lowest unused sequence number after the current highest
// and returns the created run directory.
func (a *Allocator) Next() (Dir, error) {
	n := a.highestExisting() + 1
	for attempt := 0; attempt < allocAttempts; attempt, n = attempt+1, n+1 {
		path := filepath.Join(a.root, fmt.Sprintf("%s%04d", runPrefix, n))
		err := os.Mkdir(path, 0o755)
		if err == nil {
			if err := os.Mkdir(filepath.Join(path, logsDirName), 0o755); err != nil {
				return Dir{}, fmt.Errorf("creating logs dir in %s: %w", path, err)
			}
			return Dir{Path: path}, nil
		}
		if errors.Is(err, os.ErrExist) {
			// A concurrent planner claimed this number; try the next.
			continue
		}
		return Dir{}, fmt.Errorf("allocating run dir %s: %w", path, err)
	}
	return Dir{}, fmt.Errorf("could not allocate a run dir under %s after %d attempts", a.root, allocAttempts)
}

// Latest returns the highest-numbered existing run directory.
func (a *Allocator) Latest() (Dir, error) {
	names, err := a.runNames()
	if err != nil {
		return Dir{}, err
	}
	if len(names) == 0 {
		return Dir{}, fmt.Errorf("no runs found under %s; plan a graph first", a.root)
	}
	return Dir{Path: filepath.Join(a.root, names[len(names)-1])}, nil
}

func (a *Allocator) highestExisting() int {
	names, err := a.runNames()
	if err != nil || len(names) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(names[len(names)-1], runPrefix))
	if err != nil {
		return len(names)
	}
	return n
}

// runNames lists run_* directories sorted by name; zero padding makes the
// lexical order the numeric order.
func (a *Allocator) runNames() ([]string, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, fmt.Errorf("reading runs root %s: %w", a.root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), runPrefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
