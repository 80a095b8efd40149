package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shopbilling/auth"
	"shopbilling/config"
	"shopbilling/logging"
	"shopbilling/models"
	"shopbilling/service"
	"shopbilling/sms"
	"shopbilling/store"
	"shopbilling/validator"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "billctl",
		Short:         "Operator tasks for the shop billing backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.SetOut(out)

	root.AddCommand(
		newMigrateCmd(out),
		newHashPasswordCmd(in, out),
		newRetryFailedCmd(out),
	)
	return root
}

func newMigrateCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured DB_TYPE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return codeError(3, "invalid configuration: %s", err)
			}
			st, err := store.Open(cfg, true)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintf(out, "migrations applied (%s)\n", cfg.DBType)
			return nil
		},
	}
}

func newHashPasswordCmd(in io.Reader, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Long:  "Hashes the given password, or the first line of stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(in).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if _, err := validator.ValidateLogin(validator.LoginInput{Password: password}); err != nil {
				var verr *validator.ValidationError
				if errors.As(err, &verr) {
					return codeError(2, "%s", strings.Join(verr.Errors, "; "))
				}
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, hash)
			return nil
		},
	}
}

func newRetryFailedCmd(out io.Writer) *cobra.Command {
	var dryRun bool
	var maxBills int
	cmd := &cobra.Command{
		Use:   "retry-failed",
		Short: "Resend the SMS for every bill whose last attempt FAILED",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return codeError(3, "invalid configuration: %s", err)
			}
			st, err := store.Open(cfg, false)
			if err != nil {
				return err
			}
			defer st.Close()

			sender := sms.NewSender(sms.NewProvider(cfg.SMS), cfg.Shop, cfg.SMS.Timeout)
			svc := service.NewBillService(st.Bills, sender)
			return retryFailed(cmd.Context(), svc, out, dryRun, maxBills)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the bills that would be retried without sending")
	cmd.Flags().IntVar(&maxBills, "max", 0, "Retry at most this many bills, oldest first (0 = all)")
	return cmd
}

type failedRetrier interface {
	ListBillsByStatus(ctx context.Context, raw string) ([]*models.Bill, error)
	RetrySMS(ctx context.Context, id int64) (*service.RetryResult, error)
}

// retryFailed works oldest first so long-waiting customers go out first.
// It returns exit code 2 when any retry still failed.
func retryFailed(ctx context.Context, svc failedRetrier, out io.Writer, dryRun bool, maxBills int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	bills, err := svc.ListBillsByStatus(ctx, string(models.SMSFailed))
	if err != nil {
		return err
	}
	if len(bills) == 0 {
		fmt.Fprintln(out, "no failed bills")
		return nil
	}

	// list is newest first
	for i, j := 0, len(bills)-1; i < j; i, j = i+1, j-1 {
		bills[i], bills[j] = bills[j], bills[i]
	}
	if maxBills > 0 && len(bills) > maxBills {
		bills = bills[:maxBills]
	}

	sent, failed := 0, 0
	for _, b := range bills {
		if dryRun {
			fmt.Fprintf(out, "would retry bill %d (%s, %s)\n", b.ID, b.CustomerName, b.Phone)
			continue
		}
		res, err := svc.RetrySMS(ctx, b.ID)
		if err != nil {
			failed++
			fmt.Fprintf(out, "bill %d: %v\n", b.ID, err)
			continue
		}
		if res.SMS.Success {
			sent++
			fmt.Fprintf(out, "bill %d: SENT\n", b.ID)
		} else {
			failed++
			fmt.Fprintf(out, "bill %d: FAILED (%s)\n", b.ID, res.SMS.Error)
		}
	}

	if dryRun {
		fmt.Fprintf(out, "%d bill(s) would be retried\n", len(bills))
		return nil
	}
	fmt.Fprintf(out, "retried %d bill(s): %d sent, %d failed\n", len(bills), sent, failed)
	if failed > 0 {
		return codeError(2, "%d bill(s) still failed", failed)
	}
	return nil
}
