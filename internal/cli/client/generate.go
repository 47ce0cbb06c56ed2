package client

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/aliasgen/internal/cli"
	"github.com/cloo-solutions/aliasgen/internal/config"
	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/host"
	"github.com/cloo-solutions/aliasgen/internal/service"
	"github.com/cloo-solutions/aliasgen/internal/storage"
	"github.com/spf13/cobra"
)

// GenerateRequest is the body of POST /aliases.
type GenerateRequest struct {
	Handle string `json:"handle"`
	Mode   string `json:"mode"`
}

// GenerateCmd creates the generate command.
func GenerateCmd() *cobra.Command {
	var (
		content   bool
		workspace string
	)

	cmd := &cobra.Command{
		Use:   "generate <path>",
		Short: "Generate aliases for a note",
		Long: `Asks the language model for alternative names of the note at <path> and
merges them into the aliases list of its front matter.

By default only the title (file name) is sent. With --content a short excerpt
of the body is included as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			mode := domain.ModeTitle
			if content {
				mode = domain.ModeContent
			}

			if api := NewAPIClientWithCmd(cmd); api != nil {
				return runGenerateRemote(cmd.OutOrStdout(), api, args[0], mode, outputJSON)
			}
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], workspace, mode, outputJSON)
		},
	}

	cmd.Flags().BoolVarP(&content, "content", "c", false, "Include a body excerpt in the prompt")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (overrides ALIASGEN_WORKSPACE)")

	return cmd
}

func runGenerate(ctx context.Context, stdout, stderr io.Writer, path, workspace string, mode domain.Mode, outputJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rt, err := cli.NewRuntime(ctx, cfg, cli.RuntimeOptions{
		Workspace: workspace,
		Notifier:  host.NewWriterNotifier(stderr),
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	return generateInWorkspace(ctx, stdout, rt.Store, rt.Workspace, rt.Service, path, mode, outputJSON)
}

func generateInWorkspace(ctx context.Context, stdout io.Writer, store storage.DocumentStore, ws *host.Workspace, svc *service.AliasService, path string, mode domain.Mode, outputJSON bool) error {
	handle, err := resolveHandle(store, path)
	if err != nil {
		return err
	}

	if _, err := ws.Open(ctx, handle); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ws.Close()

	result, err := svc.Generate(ctx, mode)
	if outputJSON && result != nil {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(stdout, string(output))
	}
	if err != nil {
		return fmt.Errorf("alias generation aborted: %w", err)
	}

	if !outputJSON {
		printResult(stdout, result.Title, result.Aliases, result.Added)
	}
	return nil
}

func runGenerateRemote(stdout io.Writer, api *APIClient, path string, mode domain.Mode, outputJSON bool) error {
	resp, err := api.Post("/aliases", GenerateRequest{
		Handle: filepath.ToSlash(path),
		Mode:   string(mode),
	})
	if err != nil {
		return fmt.Errorf("alias generation failed: %w", err)
	}

	var result service.Result
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(stdout, string(output))
		return nil
	}

	printResult(stdout, result.Title, result.Aliases, result.Added)
	return nil
}

func printResult(w io.Writer, title string, aliases []string, added int) {
	fmt.Fprintf(w, "%s (%d added)\n", title, added)
	for _, a := range aliases {
		fmt.Fprintf(w, "  - %s\n", a)
	}
}

// resolveHandle maps a command line path to a document handle. For a local
// workspace the path must lie inside its root; relative paths that do not
// resolve there from the working directory are taken relative to the root.
func resolveHandle(store storage.DocumentStore, path string) (string, error) {
	fsStore, ok := store.(*storage.FSStore)
	if !ok {
		return filepath.ToSlash(path), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	if rel, ok := relativeTo(fsStore.Root(), abs); ok {
		return rel, nil
	}
	if !filepath.IsAbs(path) {
		if rel, ok := relativeTo(fsStore.Root(), filepath.Join(fsStore.Root(), path)); ok {
			return rel, nil
		}
	}

	return "", fmt.Errorf("%s is outside the workspace %s", path, fsStore.Root())
}

func relativeTo(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
