package cli

import (
	"fmt"
	"io"

	checkerrors "github.com/randalmurphal/skillcheck/internal/errors"
)

// PrintError prints an error to w with appropriate formatting.
// If the error is a CheckError, it uses the user-friendly format.
// Otherwise, it prints a simple error message.
func PrintError(w io.Writer, err error, verbose bool) {
	if ce := checkerrors.AsCheckError(err); ce != nil {
		_, _ = fmt.Fprintln(w, ce.UserMessage())
		if verbose {
			_, _ = fmt.Fprintf(w, "\nCode: %s\n", ce.Code)
			if ce.Cause != nil {
				_, _ = fmt.Fprintf(w, "Cause: %v\n", ce.Cause)
			}
		}
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}
