// Command n3proof checks Notation3 proof documents carried in N-Quads.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"n3proof/internal/config"
	"n3proof/internal/formula"
	"n3proof/internal/logging"
	"n3proof/internal/proof"
)

var (
	// Global flags
	verbose    bool
	logLevel   string
	configPath string
	timeout    time.Duration

	// Set up by PersistentPreRunE
	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

// errProofFailed makes the process exit non-zero after the failures were
// already printed.
var errProofFailed = errors.New("proof verification failed")

var rootCmd = &cobra.Command{
	Use:   "n3proof",
	Short: "Verify Notation3 proof documents",
	Long: `n3proof checks log:Proof documents held in an RDF graph.

Premises named by log:includes must hold in the graph. Every log:conclusion
must follow through log:implies rules, and derived triples are added to the
knowledge base so later conclusions can use them.

Graphs are read as N-Triples or N-Quads. Statements in a named graph are the
quoted content of the formula with that name.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		cfg = loaded

		logger, err = logging.Initialize(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		if logLevel != "" && !verbose {
			if err := logging.SetLevel(logLevel); err != nil {
				return err
			}
		}
		logging.Boot("n3proof starting: config=%s", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level from config")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Verification timeout (default: verifier.timeout from config)")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errProofFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// newVerifier builds a verifier from the loaded config.
func newVerifier() *proof.Verifier {
	opts := proof.Options{
		Mode:           formula.ParseMode(cfg.Verifier.Unification),
		NestedFormulas: cfg.Verifier.NestedFormulas,
		DisableIndex:   !cfg.Verifier.UseIndex,
	}
	return proof.NewVerifier(opts, logging.Get(logging.CategoryVerify).Zap())
}

func verifyTimeout() time.Duration {
	if timeout > 0 {
		return timeout
	}
	return cfg.GetVerifyTimeout()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
