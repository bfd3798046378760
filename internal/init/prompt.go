package initcmd

import (
	"errors"
	"io"
	"os"

	"github.com/manifoldco/promptui"
)

// PromptConfirm asks a yes/no question on the terminal. A "no" answer is
// not an error.
func PromptConfirm(label string) (bool, error) {
	return promptConfirm(label, os.Stdin, os.Stdout)
}

func promptConfirm(label string, in io.ReadCloser, out io.WriteCloser) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     in,
		Stdout:    out,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
