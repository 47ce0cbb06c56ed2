package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloo-solutions/aliasgen/internal/config"
	"github.com/cloo-solutions/aliasgen/internal/database"
	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/pagination"
	"github.com/cloo-solutions/aliasgen/internal/repository"
	"github.com/spf13/cobra"
)

// HistoryItem is one recorded run as printed by the history command.
type HistoryItem struct {
	ID         string    `json:"id"`
	Handle     string    `json:"handle"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	Message    string    `json:"message,omitempty"`
	Aliases    []string  `json:"aliases"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryPage is a page of runs with the cursor for the next one.
type HistoryPage struct {
	Items   []HistoryItem `json:"items"`
	Cursor  string        `json:"cursor,omitempty"`
	HasMore bool          `json:"has_more"`
}

// historyQuery selects the runs to list. Handle and Cursor are exclusive.
type historyQuery struct {
	Handle string
	Cursor string
	Limit  int
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var q historyQuery

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent alias generation runs",
		Long: `Lists recorded runs, newest first. Runs are read from the daemon when
--api-url or ALIASGEN_API_URL is set, otherwise from ALIASGEN_DATABASE_URL.
With --handle only the latest runs for that document are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if q.Handle != "" && q.Cursor != "" {
				return fmt.Errorf("--cursor cannot be combined with --handle")
			}

			var (
				page *HistoryPage
				err  error
			)
			if api := NewAPIClientWithCmd(cmd); api != nil {
				page, err = fetchHistoryRemote(api, q)
			} else {
				page, err = fetchHistoryLocal(cmd.Context(), q)
			}
			if err != nil {
				return err
			}

			printHistory(cmd.OutOrStdout(), page, outputJSON)
			return nil
		},
	}

	cmd.Flags().IntVarP(&q.Limit, "limit", "n", pagination.DefaultLimit, "Maximum number of runs")
	cmd.Flags().StringVar(&q.Cursor, "cursor", "", "Pagination cursor from previous output")
	cmd.Flags().StringVar(&q.Handle, "handle", "", "Only list runs for this document")

	return cmd
}

func fetchHistoryRemote(api *APIClient, q historyQuery) (*HistoryPage, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	if q.Handle != "" {
		params.Set("handle", q.Handle)
	}

	path := "/runs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var page HistoryPage
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &page, nil
}

func fetchHistoryLocal(ctx context.Context, q historyQuery) (*HistoryPage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.HasDatabase() {
		return nil, fmt.Errorf("run history needs ALIASGEN_DATABASE_URL or --api-url")
	}

	decoded, err := pagination.DecodeCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: 2})
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	return listHistory(ctx, repository.NewAliasRunRepository(pool), q.Handle, decoded, q.Limit)
}

// historySource is the part of the run repository the history command reads.
type historySource interface {
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.AliasRun], error)
	ListByHandle(ctx context.Context, handle string, limit int) ([]*domain.AliasRun, error)
}

func listHistory(ctx context.Context, src historySource, handle string, cursor *pagination.Cursor, limit int) (*HistoryPage, error) {
	if handle == "" {
		runs, err := src.ListWithCursor(ctx, cursor, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		return toHistoryPage(runs), nil
	}

	clean, err := domain.CleanHandle(handle)
	if err != nil {
		return nil, err
	}
	runs, err := src.ListByHandle(ctx, clean, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return toHistoryPage(&pagination.PageResult[*domain.AliasRun]{Items: runs}), nil
}

func toHistoryPage(runs *pagination.PageResult[*domain.AliasRun]) *HistoryPage {
	page := &HistoryPage{
		Items:   make([]HistoryItem, 0, len(runs.Items)),
		Cursor:  runs.Cursor,
		HasMore: runs.HasMore,
	}
	for _, r := range runs.Items {
		page.Items = append(page.Items, HistoryItem{
			ID:         r.ID,
			Handle:     r.Handle,
			Mode:       string(r.Mode),
			Status:     string(r.Status),
			ErrorCode:  r.ErrorCode,
			Message:    r.Message,
			Aliases:    r.Aliases,
			DurationMS: r.DurationMS,
			CreatedAt:  r.CreatedAt,
		})
	}
	return page
}

func printHistory(w io.Writer, page *HistoryPage, outputJSON bool) {
	if outputJSON {
		output, _ := json.MarshalIndent(page, "", "  ")
		fmt.Fprintln(w, string(output))
		return
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	for i, item := range page.Items {
		fmt.Fprintf(w, "%s  %s  [%s, %s]\n", item.CreatedAt.Local().Format("2006-01-02 15:04:05"), item.Handle, item.Mode, item.Status)
		if item.Status == string(domain.RunStatusAborted) {
			fmt.Fprintf(w, "   Error: %s %s\n", item.ErrorCode, item.Message)
		} else if len(item.Aliases) > 0 {
			fmt.Fprintf(w, "   Aliases: %s\n", strings.Join(item.Aliases, ", "))
		}
		fmt.Fprintf(w, "   ID: %s (%dms)\n", item.ID, item.DurationMS)
		if i < len(page.Items)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
	}

	if page.HasMore && page.Cursor != "" {
		fmt.Fprintf(w, "\nMore runs available. Use --cursor %s\n", page.Cursor)
	}
}
