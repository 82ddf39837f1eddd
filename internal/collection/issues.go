package collection

import "go.uber.org/zap"

const maxLoggedMintIssues = 20

// LogMintIssues warns about each invalid mint address, up to a cap, then logs
// how many were left out.
func LogMintIssues(log *zap.Logger, issues []MintIssue) {
	for i, is := range issues {
		if i == maxLoggedMintIssues {
			log.Warn("more invalid mint addresses not logged", zap.Int("remaining", len(issues)-i))
			return
		}
		log.Warn("invalid mint address", zap.Int("row", is.Index), zap.String("mint", is.Mint), zap.Error(is.Err))
	}
}
