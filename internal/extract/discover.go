package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Sumatoshi-tech/timelens/internal/config"
)

// Directory conventions for project discovery. Local projects live in
// the run root's own repository; each external project directory is an
// independent checkout with its own .git.
const (
	localProjectsGlob   = "projects/**/click.md"
	externalProjectsDir = "external-projects"
)

// DiscoverProjects scans root for tracked files when the configuration
// lists no projects explicitly. Local matches share the root repository;
// each external project contributes at most one tracked file (the
// shallowest match wins). Results are sorted by name so discovery is
// deterministic.
func DiscoverProjects(root string) ([]config.ProjectConfig, error) {
	rootFS := os.DirFS(root)

	projects, err := discoverLocal(rootFS, root)
	if err != nil {
		return nil, err
	}

	external, err := discoverExternal(rootFS, root)
	if err != nil {
		return nil, err
	}

	projects = append(projects, external...)

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})

	return dedupeNames(projects), nil
}

func discoverLocal(rootFS fs.FS, root string) ([]config.ProjectConfig, error) {
	matches, err := doublestar.Glob(rootFS, localProjectsGlob)
	if err != nil {
		return nil, fmt.Errorf("glob local projects: %w", err)
	}

	projects := make([]config.ProjectConfig, 0, len(matches))

	for _, match := range matches {
		projects = append(projects, config.ProjectConfig{
			Name:      path.Base(path.Dir(match)),
			Repo:      root,
			ClickFile: match,
		})
	}

	return projects, nil
}

func discoverExternal(rootFS fs.FS, root string) ([]config.ProjectConfig, error) {
	entries, err := fs.ReadDir(rootFS, externalProjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read %s: %w", externalProjectsDir, err)
	}

	var projects []config.ProjectConfig

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		projectDir := path.Join(externalProjectsDir, entry.Name())

		matches, globErr := doublestar.Glob(rootFS, path.Join(projectDir, "**/click.md"))
		if globErr != nil {
			return nil, fmt.Errorf("glob external project %s: %w", entry.Name(), globErr)
		}

		if len(matches) == 0 {
			continue
		}

		// Shallowest match: matches come back lexically ordered, and the
		// root-level click.md sorts before any nested one of equal depth
		// concern; prefer the shortest path explicitly.
		best := matches[0]
		for _, match := range matches[1:] {
			if len(match) < len(best) {
				best = match
			}
		}

		projects = append(projects, config.ProjectConfig{
			Name:      entry.Name(),
			Repo:      filepath.Join(root, projectDir),
			ClickFile: best[len(projectDir)+1:],
		})
	}

	return projects, nil
}

// dedupeNames keeps discovery deterministic when two project directories
// share a base name: later duplicates get a numeric suffix.
func dedupeNames(projects []config.ProjectConfig) []config.ProjectConfig {
	seen := make(map[string]int, len(projects))

	for i := range projects {
		name := projects[i].Name

		seen[name]++
		if count := seen[name]; count > 1 {
			projects[i].Name = fmt.Sprintf("%s-%d", name, count)
		}
	}

	return projects
}
