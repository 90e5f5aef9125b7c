package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mq "github.com/yeisme/moments/pkg/internal/storage/mq"
	"github.com/yeisme/moments/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue related commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")
			for _, t := range mq.GetRegisteredTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail",
		Short: "print " + queue.TopicMediaStored + " events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !cfg.Events.Enabled {
				return errors.New("events are not enabled (events.enabled=false)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := mq.NewWithConfig(ctx, &cfg.MQ, false)
			if err != nil {
				return err
			}
			defer client.Close()

			msgs, err := client.Subscribe(ctx, queue.TopicMediaStored)
			if err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-msgs:
					if !ok {
						return nil
					}

					ev, err := queue.ParseMediaStored(msg)
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "malformed event:", err)
					} else {
						p := ev.Payload
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
							ev.Header.OccurredAt.Format("2006-01-02 15:04:05"), p.Source, p.Media.Kind, p.Media.Key)
					}

					msg.Ack()
				}
			}
		},
	}
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
	mqCmd.AddCommand(mqTailCmd)
}
