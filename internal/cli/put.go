package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put [content]",
	Short: "Insert a document",
	Long:  "Insert a document into the collection. Content can be a positional arg or piped via stdin.",
	Run:   runPut,
}

func init() {
	putCmd.Flags().String("meta", "", "JSON metadata object")
}

func runPut(cmd *cobra.Command, args []string) {
	metaStr, _ := cmd.Flags().GetString("meta")

	// Content: positional arg first, then stdin
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		exitErr("put", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var metadata map[string]any
	if metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &metadata); err != nil {
			exitErr("parse --meta", err)
		}
	}

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	id, err := a.ret.Insert(cmd.Context(), content, metadata)
	if err != nil {
		exitErr("put", err)
	}

	if doc, ok := a.ret.Get(id); ok {
		if err := a.db.SaveDocument(doc, a.emb.Model()); err != nil {
			exitErr("persist", err)
		}
	}

	fmt.Println(id)
}
