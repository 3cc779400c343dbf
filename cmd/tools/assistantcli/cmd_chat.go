package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/model/chat"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
	chatservice "github.com/tdcarpool/carpool/backend/internal/service/chat"
)

// lineReader is the part of *readline.Instance the REPL needs.
type lineReader interface {
	Readline() (string, error)
}

type chatOptions struct {
	role   string
	page   string
	delay  time.Duration
	jitter time.Duration
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	copts := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session against a local assistant widget",
		Long:  "Opens a local assistant session. Commands: /toggle opens or closes the widget, /history prints the transcript, /quit exits.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := opts.table()
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "you> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "/quit",
				Stdout:          cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("init readline: %w", err)
			}
			defer rl.Close()

			return runChat(cmd.Context(), rl, cmd.OutOrStdout(), table, copts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&copts.role, "role", string(role.Rider), "caller role: guest, rider, driver or admin")
	f.StringVar(&copts.page, "page", chatservice.DefaultPage, "page the widget is mounted on")
	f.DurationVar(&copts.delay, "delay", time.Second, "simulated reply latency")
	f.DurationVar(&copts.jitter, "jitter", 0, "random extra latency, up to this much")
	return cmd
}

// runChat mounts one session, opens it and loops until /quit or EOF.
func runChat(ctx context.Context, in lineReader, out io.Writer, table *intent.Table, opts *chatOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	who, ok := role.Lookup(opts.role)
	if !ok {
		return fmt.Errorf("unknown role %q (want one of %v)", opts.role, role.All())
	}

	pipeline, err := chatservice.NewPipeline(ctx, intent.NewResolver(table), zerolog.Nop())
	if err != nil {
		return err
	}
	svc := chatservice.NewService(chatservice.Options{
		Welcome:   table.Welcome(),
		Responder: pipeline,
		Latency:   chatservice.JitterLatency{Base: opts.delay, Jitter: opts.jitter},
		Logger:    zerolog.Nop(),
	})
	defer svc.Shutdown(context.Background())

	view, err := svc.CreateSession(ctx, chat.CallerContext{Page: opts.page, Role: who})
	if err != nil {
		return err
	}
	session, err := svc.Session(ctx, view.ID)
	if err != nil {
		return err
	}

	printed := 0
	flush := func() {
		msgs := session.Transcript()
		for _, m := range msgs[printed:] {
			printMessage(out, m)
		}
		printed = len(msgs)
	}

	session.Toggle()
	flush()

	for {
		line, err := in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/toggle":
			fmt.Fprintf(out, "[widget %s]\n", session.Toggle().State)
			flush()
			continue
		case "/history":
			for _, m := range session.Transcript() {
				printMessage(out, m)
			}
			continue
		}

		pending, accepted := session.Submit(line)
		if !accepted {
			fmt.Fprintf(out, "[not sent: widget is %s]\n", session.State())
			continue
		}
		flush()

		if _, err := pending.Wait(ctx); err != nil {
			return err
		}
		flush()
	}
}

func printMessage(out io.Writer, m chat.Message) {
	fmt.Fprintf(out, "%s> %s\n", m.Author, m.Text)
}
