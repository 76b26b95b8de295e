package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamexhub/gamex-panel/internal/health"
)

type readinessPayload struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Checks  []health.CheckResult `json:"checks"`
}

// newHealthcheckCommand probes a running instance; it exits non-zero unless
// the instance reports ready. Suitable as a container HEALTHCHECK.
func newHealthcheckCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Query /health/ready of a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			payload, err := fetchReadiness(ctx, opts.baseURL)
			for _, c := range payload.Checks {
				state := "ok"
				if !c.Healthy {
					state = "FAIL " + c.Error
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c.Name, state)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:5000", "API base URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func fetchReadiness(ctx context.Context, baseURL string) (readinessPayload, error) {
	var payload readinessPayload
	u, err := url.Parse(baseURL)
	if err != nil {
		return payload, err
	}
	rel, _ := url.Parse("/health/ready")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.ResolveReference(rel).String(), nil)
	if err != nil {
		return payload, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return payload, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, fmt.Errorf("decode readiness: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return payload, fmt.Errorf("not ready: %s", resp.Status)
	}
	return payload, nil
}
