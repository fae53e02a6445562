package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pezhmanazar/phoenix-admin/internal/composer"
	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	"github.com/pezhmanazar/phoenix-admin/internal/output"
	"github.com/pezhmanazar/phoenix-admin/internal/recorder"
)

type voiceOptions struct {
	text     string
	preview  bool
	duration time.Duration
}

func NewVoiceCmd(deps *Dependencies) *cobra.Command {
	var opts voiceOptions

	cmd := &cobra.Command{
		Use:   "voice <ticket-id>",
		Short: "Record and send a voice reply",
		Long: "Record a voice message from the microphone and send it as a reply.\n" +
			"Keys while recording: p pause/resume, s or Enter stop and send, c or Ctrl+C cancel.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := openKeys(cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer keys.Close()

			out := cmd.OutOrStdout()
			if keys.raw {
				out = crlfWriter{w: out}
			}
			formatter := output.NewFormatter(out)

			p := deps.Profile
			mic := recorder.NewFFmpegMicrophone(p.FFmpegPath, p.InputFormat, p.InputDevice, deps.Logger)
			rec := recorder.New(mic, mic, recorder.Options{
				Logger: deps.Logger,
				OnTick: formatter.RecordingTick,
			})

			comp, err := deps.newComposer(args[0], rec, formatter)
			if err != nil {
				return err
			}
			defer comp.Close()
			comp.SetText(opts.text)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runVoice(ctx, comp, keys, formatter, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Message sent along with the recording")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Write the take to a temporary file and confirm before sending")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop and send automatically after this long (e.g. 30s)")

	return cmd
}

func runVoice(ctx context.Context, comp *composer.Composer, keys *keyReader, formatter *output.Formatter, opts voiceOptions) error {
	if err := comp.StartRecording(ctx); err != nil {
		return replyError(err)
	}
	formatter.RecordingStarted(comp.RecordingMimeType())
	formatter.RecordingTick(0)

	var deadline <-chan time.Time
	if opts.duration > 0 {
		timer := time.NewTimer(opts.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	keyCh := keys.C()
	for {
		select {
		case <-ctx.Done():
			return cancelVoice(comp, formatter)
		case <-deadline:
			return stopAndSend(ctx, comp, keys, formatter, opts)
		case k, ok := <-keyCh:
			if !ok {
				// stdin is gone; only a signal or --duration can end the take
				keyCh = nil
				continue
			}
			switch k {
			case 'p', 'P', ' ':
				if comp.RecordingStatus() == domain.RecordingPaused {
					comp.ResumeRecording()
					formatter.RecordingTick(comp.ElapsedSec())
				} else {
					comp.PauseRecording()
					formatter.RecordingPaused(comp.ElapsedSec())
				}
			case 's', 'S', '\r', '\n':
				return stopAndSend(ctx, comp, keys, formatter, opts)
			case 'c', 'C', keyCtrlC, keyEscape:
				return cancelVoice(comp, formatter)
			}
		}
	}
}

func stopAndSend(ctx context.Context, comp *composer.Composer, keys *keyReader, formatter *output.Formatter, opts voiceOptions) error {
	take, err := comp.StopRecording(ctx)
	if err != nil {
		return replyError(err)
	}
	formatter.RecordingStopped(take.DurationSec, len(take.Data))

	if opts.preview && !confirmPreview(ctx, comp, keys, formatter) {
		comp.Close()
		formatter.RecordingCancelled()
		return nil
	}
	return sendReply(ctx, comp, formatter)
}

func confirmPreview(ctx context.Context, comp *composer.Composer, keys *keyReader, formatter *output.Formatter) bool {
	path, err := comp.Preview()
	if err != nil {
		formatter.Warning(err.Error())
		return true
	}
	formatter.Preview(path)
	for {
		select {
		case <-ctx.Done():
			return false
		case k, ok := <-keys.C():
			if !ok {
				return false
			}
			switch k {
			case 's', 'S', '\r', '\n':
				return true
			case 'c', 'C', keyCtrlC, keyEscape:
				return false
			}
		}
	}
}

func cancelVoice(comp *composer.Composer, formatter *output.Formatter) error {
	comp.CancelRecording(context.Background())
	formatter.RecordingCancelled()
	return nil
}
