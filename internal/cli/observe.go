package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjaylee/openclaw-mem/internal/capture"
	"github.com/kjaylee/openclaw-mem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "observe [text]",
		Short: "Record a tagged observation",
		Long:  "Append an observation to the observations file and index it immediately. Text can be passed as an argument or piped on stdin.",
		Args:  cobra.ArbitraryArgs,
		Run:   runObserve,
	}

	cmd.Flags().StringP("tag", "t", "insight", "Observation tag: "+strings.Join(model.ObservationTags, ", "))

	RootCmd.AddCommand(cmd)
}

func runObserve(cmd *cobra.Command, args []string) {
	tag, _ := cmd.Flags().GetString("tag")
	if !model.ValidTag(tag) {
		exitErr("observe", fmt.Errorf("invalid tag %q (want one of %s)", tag, strings.Join(model.ObservationTags, ", ")))
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		exitErr("observe", fmt.Errorf("no observation text given"))
	}

	cfg := loadConfig()
	ix, closeStore, err := openIndexer(cfg)
	if err != nil {
		exitErr("open index", err)
	}
	defer closeStore()

	rec := capture.NewRecorder(cfg.ObservationsFile, ix)
	n, err := rec.Record(cmd.Context(), []model.Observation{{Tag: tag, Text: text}}, false)
	if err != nil {
		exitErr("record observation", err)
	}

	printJSON(map[string]any{"recorded": n, "tag": tag})
}
