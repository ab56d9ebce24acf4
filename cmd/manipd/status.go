package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/manipd/internal/presentation/tui"
	httpAdapter "github.com/aretw0/manipd/pkg/adapters/http"
	"github.com/aretw0/manipd/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var statusCmd = &cobra.Command{
	Use:   "status [url]",
	Short: "Show the problems of a running server",
	Long: `Queries the problem front-end of a running manipd and prints its version,
problems and the obstacles of the selected problem. The URL defaults to the
configured core address.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url := baseURL(cfg.CoreAddr)
		if len(args) > 0 {
			url = strings.TrimRight(args[0], "/")
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		st, err := fetchStatus(ctx, url)
		if err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("plain")
		plain = plain || !term.IsTerminal(int(os.Stdout.Fd()))
		out, err := tui.NewRenderer(plain)(tui.StatusMarkdown(st))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")
	statusCmd.Flags().Bool("plain", false, "Print markdown without styling")
}

// baseURL turns a listen address such as ":8080" into a dialable URL.
func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func fetchStatus(ctx context.Context, url string) (tui.Status, error) {
	st := tui.Status{URL: url}

	var info map[string]string
	if err := getJSON(ctx, url+"/info", &info); err != nil {
		return st, err
	}
	st.App = info["app"]
	st.Version = info["version"]
	st.APIVersion = info["api_version"]
	st.Service = info["service"]

	var problems core.Problems
	if err := getJSON(ctx, url+"/problems", &problems); err != nil {
		return st, err
	}
	st.Problems = problems.Problems
	st.Selected = problems.Selected

	if st.Selected != "" {
		var obstacles []core.ObstacleView
		if err := getJSON(ctx, url+"/problems/selected/obstacles", &obstacles); err != nil {
			return st, err
		}
		for _, o := range obstacles {
			st.Obstacles = append(st.Obstacles, o.Name)
		}
	}
	return st, nil
}

func getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e httpAdapter.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Message != "" {
			return fmt.Errorf("query %s: %s: %s", url, e.Error, e.Message)
		}
		return fmt.Errorf("query %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
