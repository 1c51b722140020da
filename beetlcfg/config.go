// Package beetlcfg holds typed, validated construction and compare
// configuration: memory budget, codec choice, temp directory, parallelism.
// It replaces the ad hoc flag globals a C++ front end would use with a
// single value threaded explicitly into the cycle engine, per the "explicit
// EngineContext" redesign note.
package beetlcfg

import (
	"os"
	"runtime"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlerrors"
	"github.com/grailbio/beetl/codec"
)

// TempDirEnvVar is the environment variable that overrides Config.TempDir
// when both the variable and an explicit flag/field are set, per §6.
const TempDirEnvVar = "BEETL_TMPDIR"

// Config is the validated configuration for one construction or compare
// run.
type Config struct {
	// Alphabet is the symbol table reads are drawn from.
	Alphabet alphabet.Table
	// Codec selects the partial BWT segment wire format.
	Codec codec.Kind
	// TempDir is a scratch directory. If the BEETL_TMPDIR environment
	// variable is set, it overrides this field (see Load). The engine does
	// not write into it: per-cycle segments go to cycle subdirectories of
	// the output pile.Paths.Dir.
	TempDir string
	// Parallelism bounds the number of concurrent per-pile cycle workers.
	// Zero means "use runtime.GOMAXPROCS(0)".
	Parallelism int
	// MemoryBudgetBytes is the RAM budget for temporary storage. Validate
	// rejects a negative value; nothing else reads it, so construction does
	// not check its memory use against the budget.
	MemoryBudgetBytes int64
	// LCP requests the optional LCP side-stream (-L0{p} files).
	LCP bool
	// RLEIntermediate requests an RLE codec for intermediate (non-final)
	// cycle output even when the final codec differs. Combined with LCP and
	// Parallelism > 1 this is refused at startup (ConfigError), per the
	// spec's named unsupported combination.
	RLEIntermediate bool
}

// Load applies defaults and the BEETL_TMPDIR environment-variable override,
// then validates the result.
func Load(c Config) (Config, error) {
	if c.Alphabet.Size() == 0 {
		c.Alphabet = alphabet.Standard()
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if dir := os.Getenv(TempDirEnvVar); dir != "" {
		c.TempDir = dir
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate refuses unsupported combinations at startup rather than partway
// through a cycle, per the ConfigError contract.
func (c Config) Validate() error {
	if c.Parallelism < 1 {
		return beetlerrors.E(beetlerrors.ConfigError, beetlerrors.NoContext, beetlerrors.NoContext,
			"parallelism must be >= 1, got %d", c.Parallelism)
	}
	if c.TempDir == "" {
		return beetlerrors.E(beetlerrors.ConfigError, beetlerrors.NoContext, beetlerrors.NoContext,
			"temp directory must not be empty")
	}
	if c.LCP && c.RLEIntermediate && c.Parallelism > 1 {
		return beetlerrors.E(beetlerrors.ConfigError, beetlerrors.NoContext, beetlerrors.NoContext,
			"LCP output is not supported together with an RLE intermediate codec and Parallelism > 1")
	}
	if c.MemoryBudgetBytes < 0 {
		return beetlerrors.E(beetlerrors.ConfigError, beetlerrors.NoContext, beetlerrors.NoContext,
			"memory budget must not be negative, got %d", c.MemoryBudgetBytes)
	}
	return nil
}
