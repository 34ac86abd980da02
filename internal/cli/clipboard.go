package cli

import "github.com/atotto/clipboard"

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	return writeClipboard(text)
}
