package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"SalonAssistant/pkg/utils"
	websocketPkg "SalonAssistant/pkg/websocket"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "resume an existing conversation id")
	rootCmd.AddCommand(chatCmd)
}

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := chatSession
		if sessionID == "" {
			id, err := utils.New().NewSessionID()
			if err != nil {
				return err
			}
			sessionID = id
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		client, err := websocketPkg.Dial(ctx, serverURL, sessionID)
		if err != nil {
			return err
		}
		defer client.Close()

		you := color.New(color.FgGreen, color.Bold)
		bot := color.New(color.FgCyan)
		meta := color.New(color.FgHiBlack)
		errorColor := color.New(color.FgRed)

		meta.Printf("conversation %s, type /quit to leave\n", sessionID)
		scanner := bufio.NewScanner(os.Stdin)
		for {
			you.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				break
			}

			turnCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
			reply, err := client.Send(turnCtx, line)
			cancel()
			if err != nil {
				errorColor.Printf("error: %v\n", err)
				continue
			}
			bot.Println(reply.Text)
			meta.Printf("  [%s / %s]\n", reply.Flow, reply.Action)
		}
		fmt.Println()
		return scanner.Err()
	},
}
