package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/domain"
	"docchat/internal/usecase"
)

var (
	chatQuestion string
	chatDeep     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the corpus",
	Long: `Ask a question and get a streamed answer grounded in cited passages.
With -q the answer is printed once; without it an interactive session
starts that keeps conversation history.

Examples:
  docchat chat -q "how do refunds work?"
  docchat chat --deep
  docchat chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatQuestion, "question", "q", "", "ask a single question and exit")
	chatCmd.Flags().BoolVar(&chatDeep, "deep", false, "ground the hypothetical answer on a preliminary search pass")
}

func runChat(cmd *cobra.Command, args []string) error {
	docs, vectors, err := openCorpus(false)
	if err != nil {
		return err
	}
	defer docs.Close()

	retrieveUC, err := newRetrieval(docs, vectors, cfg.Retrieve)
	if err != nil {
		return err
	}
	chatModel, err := newLLM()
	if err != nil {
		return err
	}

	chatUC := usecase.NewChatUseCase(
		retrieveUC,
		usecase.NewContextFormatter(cfg.Context.CharBudget),
		chatModel,
		log,
	)

	if chatQuestion != "" {
		_, err := ask(cmd, chatUC, chatQuestion, nil)
		return err
	}

	fmt.Println("Interactive chat. Type your question, or 'exit' to quit.")
	var history []domain.Message
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := ask(cmd, chatUC, question, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		history = append(history,
			domain.Message{Role: domain.RoleUser, Content: question},
			domain.Message{Role: domain.RoleAssistant, Content: answer},
		)
	}
}

// ask streams one answer to the terminal: stage notes on stderr, tokens
// on stdout as they arrive, cited sources at the end.
func ask(cmd *cobra.Command, chatUC *usecase.ChatUseCase, question string, history []domain.Message) (string, error) {
	events := make(chan domain.ChatEvent, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		started := false
		for ev := range events {
			switch ev.Kind {
			case domain.ChatEventProgress:
				fmt.Fprintf(os.Stderr, "... %s\n", ev.Stage)
			case domain.ChatEventToken:
				if !started {
					fmt.Println()
					started = true
				}
				fmt.Print(ev.Token)
			case domain.ChatEventFinal:
				fmt.Println()
				if len(ev.Passages) > 0 {
					fmt.Println("\nSources:")
					for i, p := range ev.Passages {
						fmt.Printf("  [%d] %s\n", i+1, p.DocName)
					}
				}
			}
		}
	}()

	answer, _, err := chatUC.Ask(cmd.Context(), question, history, chatDeep, events)
	close(events)
	<-done
	if err != nil {
		return "", err
	}
	return answer, nil
}
