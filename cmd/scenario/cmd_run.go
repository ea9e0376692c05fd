package main

import (
	"context"
	"fmt"
	"time"

	"SalonAssistant/pkg/utils"
	websocketPkg "SalonAssistant/pkg/websocket"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	runCmd.Flags().DurationVar(&turnTimeout, "turn-timeout", 45*time.Second, "maximum wait per reply")
	rootCmd.AddCommand(runCmd)
}

var turnTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run [scenarios.json]",
	Short: "Play scripted conversations and check the replies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarios := builtinScenarios
		if len(args) == 1 {
			loaded, err := loadScenarios(args[0])
			if err != nil {
				return err
			}
			scenarios = loaded
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		failed := 0
		for _, s := range scenarios {
			if err := runScenario(ctx, s); err != nil {
				failed++
				color.New(color.FgRed).Printf("FAIL %s: %v\n", s.Name, err)
				continue
			}
			color.New(color.FgGreen).Printf("PASS %s\n", s.Name)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
		}
		return nil
	},
}

func runScenario(ctx context.Context, s Scenario) error {
	sessionID, err := utils.New().NewSessionID()
	if err != nil {
		return err
	}

	client, err := websocketPkg.Dial(ctx, serverURL, sessionID)
	if err != nil {
		return err
	}
	defer client.Close()

	meta := color.New(color.FgHiBlack)
	for i, step := range s.Steps {
		turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
		reply, err := client.Send(turnCtx, step.Say)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		meta.Printf("  > %s\n  < %s [%s / %s]\n", step.Say, reply.Text, reply.Flow, reply.Action)
		if failures := check(step, reply.Text, reply.Flow, reply.Action); len(failures) > 0 {
			return fmt.Errorf("step %d: %v", i+1, failures)
		}
	}
	return nil
}
