package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored documents in insertion order",
	Run:   runLs,
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a document",
	Args:  cobra.ExactArgs(1),
	Run:   runRm,
}

func runLs(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	docs := a.ret.Documents()
	if len(docs) == 0 {
		fmt.Println("no documents")
		return
	}

	for _, d := range docs {
		fmt.Printf("%s  created %s  accessed %s\n   %s\n",
			d.ID,
			d.CreatedAt.Format(time.RFC3339),
			d.LastAccessedAt.Format(time.RFC3339),
			firstLine(d.Content))
	}
}

func runRm(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	id := args[0]
	if !a.ret.Remove(id) {
		exitErr("rm", fmt.Errorf("document %s not found", id))
	}
	if _, err := a.db.DeleteDocument(id); err != nil {
		exitErr("rm", err)
	}
	fmt.Printf("removed %s\n", id)
}
