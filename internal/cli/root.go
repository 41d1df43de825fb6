// Package cli wires the pit command tree: prompt CRUD on top of the
// version store, plus the bisect, query, patch, merge, stash, hooks and
// worktree subsystems.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/config"
	"github.com/promptpit/pit/internal/hooks"
	"github.com/promptpit/pit/internal/search"
	"github.com/promptpit/pit/internal/semdiff"
	"github.com/promptpit/pit/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pit",
		Short:         "version control for LLM prompts",
		Long:          "pit tracks prompt text as immutable numbered versions and layers git-like tooling on top: bisect, history queries, patches and semantic merges.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCmd(),
		newPromptCmd(),
		newLogCmd(),
		newSearchCmd(),
		newDiffCmd(),
		newBisectCmd(),
		newPatchCmd(),
		newMergeCmd(),
		newStashCmd(),
		newHooksCmd(),
		newWorktreeCmd(),
		newMetricsCmd(),
	)
	return root
}

// Execute runs the command tree. Returns a non-nil error on any failure;
// main maps it to exit code 1.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// project bundles everything a command needs once inside an initialized
// pit directory.
type project struct {
	root string
	cfg  *config.Config
	db   *store.Store
}

// openProject locates the enclosing pit project and opens its store.
func openProject(ctx context.Context) (*project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root := config.FindProjectRoot(cwd)
	if root == "" {
		return nil, fmt.Errorf("not a pit project (run 'pit init' first)")
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(ctx, filepath.Join(root, config.PitDir, store.DBName))
	if err != nil {
		return nil, err
	}
	return &project{root: root, cfg: cfg, db: db}, nil
}

func (p *project) Close() {
	if err := p.db.Close(); err != nil {
		log.Printf("failed to close store: %v", err)
	}
}

// prompt resolves a prompt by name, failing with a user-facing error when
// it does not exist.
func (p *project) prompt(ctx context.Context, name string) (*store.Prompt, error) {
	prompt, err := p.db.GetPromptByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, fmt.Errorf("prompt %q not found", name)
	}
	return prompt, nil
}

// version resolves one numbered version of a prompt.
func (p *project) version(ctx context.Context, prompt *store.Prompt, number int) (*store.Version, error) {
	v, err := p.db.GetVersion(ctx, prompt.ID, number)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("version %d of prompt %q not found", number, prompt.Name)
	}
	return v, nil
}

// author returns the explicit author or the configured default.
func (p *project) author(flag string) string {
	if flag != "" {
		return flag
	}
	return p.cfg.Project.DefaultAuthor
}

// commitVersion appends a new version with the full commit ceremony:
// pre-commit hook, append, optional semantic-diff annotation, search
// indexing, post-commit hook. Hook and indexing failures after the append
// are logged, not fatal.
func (p *project) commitVersion(ctx context.Context, prompt *store.Prompt, content, message, author string, annotate bool) (*store.Version, error) {
	hookEnv := map[string]string{"PROMPT_NAME": prompt.Name}
	hookMgr := hooks.NewManager(p.root)
	if result := hookMgr.Run(ctx, hooks.PreCommit, hookEnv); !result.Success {
		return nil, fmt.Errorf("pre-commit hook rejected the commit: %s\n%s", result.Message, result.Stderr)
	}

	previous, err := p.db.LatestVersion(ctx, prompt.ID)
	if err != nil {
		return nil, err
	}

	v, err := p.db.AppendVersion(ctx, prompt.ID, content, message, author, nil)
	if err != nil {
		return nil, err
	}

	if annotate {
		p.annotateSemanticDiff(ctx, previous, v)
	}
	p.indexVersion(prompt.Name, v)

	if result := hookMgr.Run(ctx, hooks.PostCommit, hookEnv); !result.Success {
		log.Printf("post-commit hook failed: %s", result.Message)
	}
	return v, nil
}

// annotateSemanticDiff attaches an LLM-generated change analysis when a
// provider is configured. Best effort: a missing key or provider failure
// only logs.
func (p *project) annotateSemanticDiff(ctx context.Context, previous, current *store.Version) {
	provider, err := semdiff.FromConfig(p.cfg.LLM)
	if err != nil {
		log.Printf("semantic diff skipped: %v", err)
		return
	}

	oldContent := ""
	if previous != nil {
		oldContent = previous.Content
	}
	analysis, err := semdiff.NewAnalyzer(provider).AnalyzeDiff(ctx, oldContent, current.Content)
	if err != nil {
		log.Printf("semantic diff failed: %v", err)
		return
	}
	if err := p.db.SetSemanticDiff(ctx, current, analysis); err != nil {
		log.Printf("failed to store semantic diff: %v", err)
	}
}

// indexVersion adds a version to the search index, best effort.
func (p *project) indexVersion(promptName string, v *store.Version) {
	idx, err := search.Open(p.root)
	if err != nil {
		log.Printf("search index unavailable: %v", err)
		return
	}
	defer idx.Close()
	if err := idx.IndexVersion(promptName, v); err != nil {
		log.Printf("failed to index version: %v", err)
	}
}

// unindexVersions removes deleted versions from the search index, best
// effort.
func (p *project) unindexVersions(versions []store.Version) {
	if len(versions) == 0 {
		return
	}
	idx, err := search.Open(p.root)
	if err != nil {
		log.Printf("search index unavailable: %v", err)
		return
	}
	defer idx.Close()

	ids := make([]string, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}
	if err := idx.DeletePrompt(ids); err != nil {
		log.Printf("failed to unindex versions: %v", err)
	}
}

// parseVersionArg accepts "3" or "v3".
func parseVersionArg(arg string) (int, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(arg), "v")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid version %q", arg)
	}
	return n, nil
}

// readContent resolves prompt content from a file flag, a literal flag or
// stdin, in that order.
func readContent(contentFile, content string) (string, error) {
	if contentFile != "" {
		data, err := os.ReadFile(contentFile)
		if err != nil {
			return "", fmt.Errorf("failed to read content file: %w", err)
		}
		return string(data), nil
	}
	if content != "" {
		return content, nil
	}
	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no content given: use --file, --content or pipe stdin")
}

// versionNumbers extracts the ordered number list from a version slice.
func versionNumbers(versions []store.Version) []int {
	numbers := make([]int, len(versions))
	for i, v := range versions {
		numbers[i] = v.VersionNumber
	}
	return numbers
}
