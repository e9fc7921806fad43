package webhook

import "github.com/GriffinCanCode/chatgate/internal/shared/types"

// Merge returns the session webhooks followed by the global webhook, if any.
// Duplicates are kept.
func Merge(session []types.WebhookConfig, global *types.WebhookConfig) []types.WebhookConfig {
	merged := make([]types.WebhookConfig, 0, len(session)+1)
	merged = append(merged, session...)
	if global != nil {
		merged = append(merged, *global)
	}
	return merged
}
