package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"immigrationiq/internal/adapter/session"
	"immigrationiq/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation grounded in the indexed instructions",
	Long: `Start a multi-turn conversation. The assistant remembers everything
said in the session and grounds its answers in passages retrieved from
the indexed USCIS instructions.

REPL commands:
  /history    show the conversation so far
  /clear      start a fresh conversation
  /quit       exit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	model, err := newLLM(ctx)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	st := newStore()
	defer st.Close()
	retr, _ := newRetriever(st)

	chatUC := usecase.NewChatUseCase(session.NewMemoryStore(), model, retr, cfg.Retrieve.TopK)

	sessionID := uuid.NewString()
	fmt.Printf("ImmigrationIQ chat (session %s). Type /quit to exit.\n\n", sessionID[:8])

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			chatUC.Clear(sessionID)
			sessionID = uuid.NewString()
			fmt.Printf("Started a new conversation (session %s).\n", sessionID[:8])
			continue
		case "/history":
			history := chatUC.History(sessionID)
			if len(history) == 0 {
				fmt.Println("No messages yet.")
				continue
			}
			for _, m := range history {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
			}
			continue
		}

		result, err := chatUC.Turn(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Printf("\n%s\n", result.Message)
		if len(result.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, s := range result.Sources {
				fmt.Printf("  - %s\n", s)
			}
		}
		fmt.Println()
	}
}
