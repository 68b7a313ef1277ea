package cli

import (
	"fmt"
	"log"

	"detective-quiz-service/internal/config"
	"detective-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewRebuildCmd triggers a one-shot aggregation of every leaderboard period.
func NewRebuildCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild all leaderboard snapshots once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			_, leaderboardService, closeStores, err := buildServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStores()

			results := leaderboardService.RebuildAll(cmd.Context())
			var failed int
			for _, period := range domain.Periods() {
				result := results[period]
				if result.Err != nil {
					failed++
					log.Printf("rebuild %s: %v", period, result.Err)
					continue
				}
				log.Printf("rebuild %s: %d entries", period, result.Count)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d periods failed", failed, len(domain.Periods()))
			}
			return nil
		},
	}
}
