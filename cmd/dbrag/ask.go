package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/pipeline"
	"github.com/dbrag/dbrag-server/pkg/logger"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and stream the answer to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var askShowSQL bool

func init() {
	askCmd.Flags().BoolVar(&askShowSQL, "show-sql", false, "Print the generated SQL statement to stderr")
	askCmd.Flags().String("model", "", "Model override for this question")

	rootCmd.AddCommand(askCmd)
}

// runAsk drives the pipeline directly: no HTTP server, no message queue,
// just question in, answer fragments out.
func runAsk(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()
	question := strings.Join(args, " ")

	log, err := logger.NewLogger(cfg.Environment)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := p.Startup(ctx); err != nil {
		return err
	}
	defer func() {
		p.Shutdown(ctx)
		if p.Driver() != nil {
			p.Driver().Close()
		}
	}()

	model, _ := cmd.Flags().GetString("model")

	result, err := p.Answer(ctx, pipeline.AnswerRequest{Question: question, Model: model})
	if err != nil {
		return err
	}

	if askShowSQL {
		fmt.Fprintf(os.Stderr, "SQL: %s\n", result.SQL)
	}

	for {
		fragment, err := result.Answer.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}

			return err
		}

		fmt.Print(fragment)
	}
}
