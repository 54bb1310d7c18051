package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"luxury-leads-backend/internal/widget"
)

func newChatCommand() *cobra.Command {
	var (
		baseURL  string
		agencyID string
		variant  string
		timeout  time.Duration
		htmlOut  string
		arrival  bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to an agency assistant from the terminal through the widget client",
		Long: "Reads one message per line from stdin and prints the transcript as the widget " +
			"would show it. Use --html to write the rendered widget when input ends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := widget.ParseVariant(variant)
			if err != nil {
				return err
			}
			opts := widget.Preset(v, agencyID)
			if baseURL == "" {
				baseURL = "http://localhost:" + cfg.Port
			}
			opts.BaseURL = baseURL
			opts.RequestTimeout = timeout
			if arrival {
				opts.Ordering = widget.OrderArrival
			}
			w := widget.New(opts)
			info := w.Init(cmd.Context())
			w.Open()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "connected to %s (%s)\n", info.AgencyName, w.Options().BaseURL)
			var outMu sync.Mutex
			w.OnAppend(func(m widget.Message) {
				outMu.Lock()
				defer outMu.Unlock()
				printMessage(out, info, m)
			})

			if err := feed(w, cmd.InOrStdin()); err != nil {
				return err
			}
			w.Wait()

			if htmlOut != "" {
				html, err := w.Render()
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlOut, []byte(html), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", htmlOut, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "chat backend (default http://localhost:$PORT)")
	cmd.Flags().StringVar(&agencyID, "agency", "", "agency id sent with every message")
	cmd.Flags().StringVar(&variant, "variant", "named", "widget preset: classic, named, inline or compact")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout (0 waits indefinitely)")
	cmd.Flags().StringVar(&htmlOut, "html", "", "write the final rendered widget to this file")
	cmd.Flags().BoolVar(&arrival, "arrival-order", false, "show replies as they arrive instead of in submission order")
	return cmd
}

func feed(w *widget.Widget, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		w.Submit(scanner.Text())
	}
	return scanner.Err()
}

func printMessage(out io.Writer, info widget.AgencyInfo, m widget.Message) {
	name := "You"
	if m.Sender == widget.SenderAI {
		name = info.AssistantName
	}
	suffix := ""
	if m.Failed {
		suffix = " (failed)"
	}
	fmt.Fprintf(out, "[%d] %s: %s%s\n", m.Seq, name, m.Text, suffix)
}
