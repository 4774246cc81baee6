package workflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// terminalConfirmer prompts on a terminal and reads y/n answers. It stands in
// for the device screen when running the simulator.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalConfirmer creates a Confirmer reading answers from in and
// writing prompts to out
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewTerminalConfirmer(in io.Reader, out io.Writer) Confirmer {
	return &terminalConfirmer{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// StdinIsInteractive reports whether stdin is attached to a terminal. The
// simulator refuses to run confirmations against a non-interactive stdin
// unless explicitly told to.
func StdinIsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm shows a generic title/body confirmation
func (c *terminalConfirmer) Confirm(ctx context.Context, p ConfirmParams) (bool, error) {
	fmt.Fprintf(c.out, "\n== %s ==\n%s\n", p.Title, p.Body)
	return c.ask(ctx)
}

// ConfirmTransaction shows a recipient address with the transacted amount
func (c *terminalConfirmer) ConfirmTransaction(ctx context.Context, recipient string, amount string) (bool, error) {
	fmt.Fprintf(c.out, "\n== Send ==\nAmount:    %s\nRecipient: %s\n", amount, recipient)
	return c.ask(ctx)
}

// ConfirmTotalFee shows the transaction total with the network fee
func (c *terminalConfirmer) ConfirmTotalFee(ctx context.Context, total string, fee string) (bool, error) {
	fmt.Fprintf(c.out, "\n== Confirm ==\nTotal: %s\nFee:   %s\n", total, fee)
	return c.ask(ctx)
}

func (c *terminalConfirmer) ask(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(err, "confirmation cancelled")
	}

	fmt.Fprint(c.out, "Accept? [y/N] ")
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false, errors.Wrap(err, "failed to read confirmation answer")
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
