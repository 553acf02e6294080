package admincli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/passtree/passtree/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

var errPasswordMismatch = errors.New("passwords do not match")

// promptPassword reads a password twice without echo and requires both
// entries to match. The intermediate buffers are wiped before returning.
func (a *App) promptPassword() (string, error) {
	fmt.Fprint(a.out, "Enter password: ")
	first, err := readPassword()
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(first)

	fmt.Fprint(a.out, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		return "", errPasswordMismatch
	}

	return string(first), nil
}
