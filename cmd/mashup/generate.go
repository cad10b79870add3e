package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/makeasinger/mashup/internal/client"
	"github.com/makeasinger/mashup/internal/model"
	"github.com/makeasinger/mashup/internal/service"
	"github.com/makeasinger/mashup/internal/validation"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var req model.MashupRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Download, cut and email a mashup for one artist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			svc := service.NewMashupService(
				&cfg.Mashup,
				validation.New(),
				client.NewYTDLPClient(&cfg.Tools),
				client.NewFFmpegClient(&cfg.Tools),
				client.NewSMTPClient(&cfg.Mail),
				nil,
				nil,
			)

			stderr := cmd.ErrOrStderr()
			progress, finish := newProgressReporter(stderr)
			result, err := svc.Generate(cmd.Context(), &req, progress)
			finish()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				var verr *validation.Error
				if errors.As(err, &verr) {
					return verr
				}
				return errors.New(service.FailureMessage(err))
			}

			writeResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Artist, "artist", "a", "", "Artist to build the mashup from")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Address the archive is sent to")
	cmd.Flags().IntVarP(&req.ClipCount, "count", "n", model.DefaultClipCount, "Number of tracks to use")
	cmd.Flags().IntVarP(&req.ClipDuration, "duration", "d", model.DefaultClipDuration, "Seconds kept from each track")

	return cmd
}

// newProgressReporter draws a bar on terminals and prints stage lines otherwise
func newProgressReporter(w io.Writer) (service.ProgressFunc, func()) {
	if !isTerminalWriter(w) {
		return func(stage model.Stage, progress int, step string) {
			fmt.Fprintf(w, "[%3d%%] %s: %s\n", progress, stage, step)
		}, func() {}
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionClearOnFinish(),
	)
	report := func(_ model.Stage, progress int, step string) {
		bar.Describe(step)
		_ = bar.Set(progress)
	}
	finish := func() {
		_ = bar.Finish()
	}
	return report, finish
}

func isTerminalWriter(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeResult(w io.Writer, result *model.MashupResult) {
	rows := make([][]string, 0, len(result.Tracks))
	for i, track := range result.Tracks {
		rows = append(rows, []string{strconv.Itoa(i + 1), track.ID, track.Title})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "ID", "Title"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))

	if result.Warning != "" {
		fmt.Fprintf(w, "Warning: %s\n", result.Warning)
	}
	fmt.Fprintf(w, "Sent %s (%s, %s of audio) to %s\n",
		result.ArchiveName,
		humanize.Bytes(uint64(result.ArchiveSize)),
		formatDuration(result.DurationSeconds),
		result.Email,
	)
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "unknown length"
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
