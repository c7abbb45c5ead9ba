package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopyhq/canopy/internal/presentation/tui"
	"github.com/canopyhq/canopy/pkg/adapters/backend"
	"github.com/canopyhq/canopy/pkg/adapters/memory"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [input]",
	Short: "Submit a run and stream its execution",
	Long: `Submits a run to the backend and streams tokens as they arrive. With no
input argument it starts an interactive loop; a paused run resumes on the
next submission.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		backendURL, _ := cmd.Flags().GetString("backend")
		token, _ := cmd.Flags().GetString("token")
		showSteps, _ := cmd.Flags().GetBool("steps")
		showTrace, _ := cmd.Flags().GetBool("trace")

		var clientOpts []backend.Option
		if token != "" {
			clientOpts = append(clientOpts, backend.WithToken(token))
		}
		client := backend.New(backendURL, clientOpts...)

		interactive := tui.IsInteractive()
		render := tui.NewRenderer()

		hooks := runner.Hooks{
			OnToken: func(tok string) {
				fmt.Print(tok)
			},
			OnMessage: func(msg domain.Message) {
				fmt.Println()
				if msg.Error != "" {
					fmt.Fprintf(os.Stderr, "run failed: %s\n", msg.Error)
					return
				}
				if interactive {
					tui.PrintThinking(msg.ThinkingDuration)
					if out, err := render(msg.Content); err == nil {
						fmt.Print(out)
					}
				}
			},
		}
		if showSteps {
			hooks.OnStep = tui.PrintStep
		}
		if showTrace {
			hooks.OnReasoning = tui.PrintTrace
		}

		ctrl := runner.NewController(client,
			runner.WithLogger(logger),
			runner.WithStore(memory.NewStore()),
			runner.WithHooks(hooks),
		)

		if len(args) > 0 {
			return submitAndWait(cmd.Context(), ctrl, strings.Join(args, " "))
		}
		return interactiveLoop(cmd.Context(), ctrl)
	},
}

func submitAndWait(ctx context.Context, ctrl *runner.Controller, input string) error {
	handle, err := ctrl.Submit(ctx, input)
	if err != nil {
		return err
	}
	<-handle.Done()
	if err := handle.Err(); err != nil {
		return err
	}

	if snap := ctrl.Snapshot(); snap.Paused {
		fmt.Fprintf(os.Stderr, "run %s paused; submit again to resume\n", snap.RunID)
	}
	return nil
}

func interactiveLoop(ctx context.Context, ctrl *runner.Controller) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			ctrl.Stop()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "exit", "quit":
			ctrl.Stop()
			return nil
		}

		if err := submitAndWait(ctx, ctrl, input); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("token", "", "Bearer token for the backend")
	runCmd.Flags().Bool("steps", false, "Print execution steps as they start and finish")
	runCmd.Flags().Bool("trace", false, "Print the reasoning trace as it updates")
}
