package action

import (
	"fmt"
	"strings"

	"ragconsole/internal/backend"
)

const (
	MsgChatFallback    = "Sorry, I encountered an error. Please try again."
	MsgScrapeFallback  = "Failed to scrape data. Please try again."
	MsgCleanupSuccess  = "Data cleanup completed successfully."
	MsgCleanupFallback = "Failed to clean up data. Please try again."
	MsgStatusFallback  = "Failed to fetch vector store status. Please try again."
)

func scrapeText(outcome backend.StatusOutcome) string {
	switch outcome.Kind {
	case backend.Success:
		return fmt.Sprintf("Data scraping completed successfully. %s", outcome.Message)
	case backend.ApplicationFailure:
		return fmt.Sprintf("Scraping failed: %s", outcome.Message)
	default:
		return MsgScrapeFallback
	}
}

func cleanupText(outcome backend.StatusOutcome) string {
	switch outcome.Kind {
	case backend.Success:
		return MsgCleanupSuccess
	case backend.ApplicationFailure:
		return fmt.Sprintf("Cleanup failed: %s", outcome.Message)
	default:
		return MsgCleanupFallback
	}
}

func statusText(outcome backend.StoreOutcome) string {
	switch outcome.Kind {
	case backend.Success:
		data := outcome.Payload
		lines := []string{fmt.Sprintf("Vector store holds %d documents.", data.TotalDocuments)}
		if len(data.Sources) > 0 {
			lines = append(lines, "Sources: "+strings.Join(data.Sources, ", "))
		}
		if strings.TrimSpace(data.LastUpdated) != "" {
			lines = append(lines, "Last updated: "+data.LastUpdated)
		}
		return strings.Join(lines, "\n")
	case backend.ApplicationFailure:
		return fmt.Sprintf("Status check failed: %s", outcome.Message)
	default:
		return MsgStatusFallback
	}
}
