//go:build e2e

package e2e

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateResult struct {
	RunID   string   `json:"run_id"`
	Title   string   `json:"title"`
	State   string   `json:"state"`
	Aliases []string `json:"aliases"`
	Added   int      `json:"added"`
}

type runItem struct {
	ID        string   `json:"id"`
	Handle    string   `json:"handle"`
	Status    string   `json:"status"`
	ErrorCode string   `json:"error_code"`
	Aliases   []string `json:"aliases"`
}

func TestE2E_GenerateAndHistory(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("health needs no token", func(t *testing.T) {
		resp, err := env.Do(http.MethodGet, "/health", nil, "-")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		resp, err := env.Do(http.MethodPost, "/aliases", map[string]string{"handle": "x.md"}, "wrong")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
		assert.Equal(t, 0, env.Model.Calls())
	})

	var firstRunID string

	t.Run("title mode writes aliases to the object", func(t *testing.T) {
		env.Put("rivers/Ока.md", "Ока — река в России.\n")
		env.Model.Reply(http.StatusOK, `["Оке", "Окой", "Окою"]`)

		resp, err := env.Do(http.MethodPost, "/aliases", map[string]string{"handle": "rivers/Ока.md"}, "")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status, resp.Error)

		var result generateResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, "Ока", result.Title)
		assert.Equal(t, "done", result.State)
		assert.Equal(t, 3, result.Added)
		firstRunID = result.RunID

		assert.Equal(t, "---\naliases:\n  - Оке\n  - Окой\n  - Окою\n---\nОка — река в России.\n", env.Get("rivers/Ока.md"))
	})

	t.Run("rejected completion is reported and recorded", func(t *testing.T) {
		env.Put("Лес.md", "")
		env.Model.Reply(http.StatusUnauthorized, "invalid_api_key")

		resp, err := env.Do(http.MethodPost, "/aliases", map[string]string{"handle": "Лес.md", "mode": "content"}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.Status)
		assert.Equal(t, "API_REJECTED", resp.Code)
		assert.Equal(t, "Completion service error: invalid_api_key", resp.Error)
		assert.Equal(t, "", env.Get("Лес.md"))
	})

	t.Run("missing document", func(t *testing.T) {
		resp, err := env.Do(http.MethodPost, "/aliases", map[string]string{"handle": "absent.md"}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status)
	})

	t.Run("history lists runs newest first", func(t *testing.T) {
		resp, err := env.Do(http.MethodGet, "/runs?limit=10", nil, "")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status)

		var page struct {
			Items   []runItem `json:"items"`
			HasMore bool      `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		require.GreaterOrEqual(t, len(page.Items), 2)
		assert.False(t, page.HasMore)

		oldest := page.Items[len(page.Items)-1]
		assert.Equal(t, firstRunID, oldest.ID)

		var rejected *runItem
		for i := range page.Items {
			if page.Items[i].Handle == "Лес.md" {
				rejected = &page.Items[i]
			}
		}
		require.NotNil(t, rejected)
		assert.Equal(t, "aborted", rejected.Status)
		assert.Equal(t, "API_REJECTED", rejected.ErrorCode)
	})

	t.Run("history filtered by document", func(t *testing.T) {
		resp, err := env.Do(http.MethodGet, "/runs?handle="+url.QueryEscape("rivers/Ока"), nil, "")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status)

		var page struct {
			Items []runItem `json:"items"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		require.Len(t, page.Items, 1)
		assert.Equal(t, firstRunID, page.Items[0].ID)
	})

	t.Run("get run by id", func(t *testing.T) {
		resp, err := env.Do(http.MethodGet, "/runs/"+firstRunID, nil, "")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status)

		var run runItem
		require.NoError(t, json.Unmarshal(resp.Data, &run))
		assert.Equal(t, "rivers/Ока.md", run.Handle)
		assert.Equal(t, []string{"Оке", "Окой", "Окою"}, run.Aliases)
	})
}
