// riskgate runs a project's bulk analysis through securereq-engine and fails
// the build when any story's risk score meets the configured threshold.
//
// Exit codes: 0 all stories pass, 1 any story fails the gate, 2 the engine
// could not be reached or rejected the request.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/securereq/securereq-engine/pkg/riskgate"
)

func main() {
	var (
		server    string
		apiKey    string
		projectID string
		threshold int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:           "riskgate",
		Short:         "Fail CI when a project's stories carry too much security risk",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := uuid.Parse(projectID)
			if err != nil {
				return fmt.Errorf("invalid --project: %w", err)
			}
			if threshold < 1 || threshold > 100 {
				return fmt.Errorf("--threshold must be between 1 and 100")
			}
			if apiKey == "" {
				apiKey = os.Getenv("SECUREREQ_API_KEY")
			}

			client := &riskgate.Client{
				BaseURL:    server,
				APIKey:     apiKey,
				HTTPClient: &http.Client{Timeout: timeout},
			}
			result, err := client.AnalyzeProject(cmd.Context(), pid)
			if err != nil {
				fmt.Fprintf(os.Stderr, "riskgate: %v\n", err)
				os.Exit(riskgate.ExitTransport)
			}

			report := riskgate.Evaluate(result, threshold)
			report.Print(os.Stdout)
			os.Exit(report.ExitCode())
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "engine base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (defaults to SECUREREQ_API_KEY)")
	cmd.Flags().StringVar(&projectID, "project", "", "project ID to analyze")
	cmd.Flags().IntVar(&threshold, "threshold", 70, "risk score at which a story fails the gate")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall request timeout")
	cmd.MarkFlagRequired("project") //nolint:errcheck

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "riskgate: %v\n", err)
		os.Exit(riskgate.ExitTransport)
	}
}
