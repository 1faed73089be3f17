// Package backup makes a best-effort secondary copy of persisted .coin
// reward files (SPEC_FULL section 4.7). It never affects the primary
// file in rewards_dir: a backup failure is logged by the caller and
// otherwise ignored, matching spec section 4.4's File/hook failure
// policy ("log and continue").
package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/cp"
)

// CopyCoinFile copies the already-persisted coin file at coinPath into
// dir, named the same way ({id}.coin). dir is created if missing.
func CopyCoinFile(coinPath, dir string, id uint64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("backup dir: %w", err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("%d.coin", id))
	return cp.CopyFile(dst, coinPath)
}
