package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/makeasinger/mashup/internal/config"
	"github.com/makeasinger/mashup/internal/deps"
	"github.com/spf13/cobra"
)

var errPreflightFailed = errors.New("preflight failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify required tools and mail credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(&cfg.Tools))
			if !writeCheck(cmd.OutOrStdout(), statuses, cfg.Mail) {
				return errPreflightFailed
			}
			return nil
		},
	}
}

// writeCheck renders the preflight table and reports whether all checks pass
func writeCheck(w io.Writer, statuses []deps.Status, mail config.MailConfig) bool {
	rows := make([][]string, 0, len(statuses)+1)
	for _, s := range statuses {
		rows = append(rows, []string{s.Name, availability(s.Available), s.Detail})
	}

	mailDetail := fmt.Sprintf("%s:%d", mail.Host, mail.Port)
	if !mail.IsConfigured() {
		mailDetail = "set MAIL_SENDER_EMAIL and MAIL_PASSWORD"
	}
	rows = append(rows, []string{"mail", availability(mail.IsConfigured()), mailDetail})

	fmt.Fprintln(w, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
	return deps.AllAvailable(statuses) && mail.IsConfigured()
}

func availability(ok bool) string {
	if ok {
		return "ok"
	}
	return "missing"
}
