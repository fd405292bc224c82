//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sourceRoots are the directories counted by Stats.
var sourceRoots = []string{"cmd", "internal", "pkg"}

// packageStats counts lines in one package directory.
type packageStats struct {
	Package string `json:"package"`
	Prod    int    `json:"prod"`
	Test    int    `json:"test"`
	Scripts int    `json:"scripts,omitempty"`
}

// Stats prints Go lines of code per package, and testscript files, as JSON.
func Stats() error {
	byPkg := map[string]*packageStats{}
	get := func(dir string) *packageStats {
		if ps, ok := byPkg[dir]; ok {
			return ps
		}
		ps := &packageStats{Package: dir}
		byPkg[dir] = ps
		return ps
	}

	for _, root := range sourceRoots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			switch {
			case strings.HasSuffix(path, ".txtar"):
				get(packageDir(path)).Scripts++
			case strings.HasSuffix(path, "_test.go"):
				n, err := countLines(path)
				if err != nil {
					return err
				}
				get(filepath.Dir(path)).Test += n
			case strings.HasSuffix(path, ".go"):
				n, err := countLines(path)
				if err != nil {
					return err
				}
				get(filepath.Dir(path)).Prod += n
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	stats := make([]*packageStats, 0, len(byPkg))
	for _, ps := range byPkg {
		stats = append(stats, ps)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Package < stats[j].Package })

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// packageDir maps a file under testdata/ to the package that owns it.
func packageDir(path string) string {
	dir := filepath.Dir(path)
	if i := strings.Index(dir, string(filepath.Separator)+"testdata"); i >= 0 {
		return dir[:i]
	}
	return dir
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
