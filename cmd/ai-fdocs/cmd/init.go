package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/fetch"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an ai-fdocs config from Cargo.toml dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.Context(), configPath, initForce)
	},
}

func runInit(ctx context.Context, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}

	names, err := readCargoDependencies("Cargo.toml")
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no dependencies found in Cargo.toml")
	}

	fetcher := fetch.NewLatestFetcher()
	repos := make(map[string]string)

	for _, name := range names {
		info, err := fetcher.CrateInfo(ctx, name)
		if err != nil {
			logger.Warn("failed to resolve crate metadata", "crate", name, "err", err)
			continue
		}
		source := info.Repository
		if source == "" {
			source = info.Homepage
		}
		repo, ok := extractGitHubOwnerRepo(source)
		if !ok {
			logger.Warn("could not infer GitHub repo for crate, skipping", "crate", name)
			continue
		}
		repos[name] = repo
	}

	if len(repos) == 0 {
		return errors.New("could not resolve any GitHub repositories from dependencies")
	}

	var out strings.Builder
	out.WriteString("[settings]\n")
	out.WriteString("output_dir = \"fdocs/rust\"\n")
	out.WriteString("max_file_size_kb = 200\n")
	out.WriteString("prune = true\n")
	out.WriteString("docs_source = \"github\"\n\n")

	sorted := make([]string, 0, len(repos))
	for name := range repos {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for _, name := range sorted {
		fmt.Fprintf(&out, "[crates.%s]\nrepo = %q\n\n", name, repos[name])
	}

	if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logger.Info("wrote config", "path", path, "crates", len(repos))
	return nil
}

// readCargoDependencies collects the dependency names from a project
// manifest, including workspace dependencies, sorted and deduplicated.
func readCargoDependencies(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("Cargo.toml not found")
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var manifest struct {
		Dependencies map[string]toml.Primitive `toml:"dependencies"`
		Workspace    struct {
			Dependencies map[string]toml.Primitive `toml:"dependencies"`
		} `toml:"workspace"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var names []string
	for name := range manifest.Dependencies {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range manifest.Workspace.Dependencies {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// extractGitHubOwnerRepo reduces a repository or homepage URL to the
// owner/name form used in the config.
func extractGitHubOwnerRepo(url string) (string, bool) {
	normalized := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(url), "/"), ".git")

	const marker = "github.com/"
	idx := strings.Index(normalized, marker)
	if idx < 0 {
		return "", false
	}

	var parts []string
	for _, part := range strings.Split(normalized[idx+len(marker):], "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
