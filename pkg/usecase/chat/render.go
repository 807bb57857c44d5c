package chat

import (
	"fmt"
	"io"

	"github.com/m-mizutani/burrow/pkg/model"
)

// Render prints an answer with its cited sources. Sources show the last
// update of their first partition, or the "unknown" sentinel when a source
// carries no partitions.
func Render(w io.Writer, answer *model.Answer) {
	fmt.Fprintf(w, "\nQ: %s\n", answer.Question)
	fmt.Fprintf(w, "A: %s\n", answer.Result)

	if len(answer.RelevantSources) == 0 {
		fmt.Fprintln(w, "\nNo sources cited.")
		return
	}

	fmt.Fprintln(w, "\nSources:")
	for _, src := range answer.RelevantSources {
		fmt.Fprintf(w, "  - %s (%s) last update: %s\n", src.Name, src.Link, src.LastUpdate())
	}
}
