package beetlcfg

import (
	"golang.org/x/sys/unix"

	"github.com/grailbio/beetl/beetlerrors"
)

// CheckTempDirSpace probes TempDir's free space and returns a
// ResourceExhaustion error naming the directory if fewer than
// requiredBytes are available. Nothing in this module calls it; the cycle
// engine starts each cycle without a free-space check.
func CheckTempDirSpace(c Config, requiredBytes int64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(c.TempDir, &stat); err != nil {
		return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, beetlerrors.NoContext,
			beetlerrors.NoOffset, err, "statfs temp directory")
	}
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < requiredBytes {
		return beetlerrors.E(beetlerrors.ResourceExhaustion, beetlerrors.NoContext, beetlerrors.NoContext,
			"temp directory %q has %d bytes free, need at least %d", c.TempDir, available, requiredBytes)
	}
	return nil
}
