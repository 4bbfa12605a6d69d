package hg

import (
	"fmt"
	"strings"

	"github.com/shinji-kodama/hgbuf/internal/model"
)

// CommentPrefix marks the lines of a commit message template that are
// removed before committing.
const CommentPrefix = "HG:"

// CommitTemplate returns the text offered to the user for editing before a
// commit of the file described by info.
//
// Example:
//
//	<empty line>
//	HG: Enter commit message.  Lines beginning with 'HG:' are removed.
//	HG: Leave message empty to abort commit.
//	HG: --
//	HG: branch 'default'
//	HG: changed bar.txt
func CommitTemplate(info Info) string {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s Enter commit message.  Lines beginning with '%s' are removed.\n", CommentPrefix, CommentPrefix)
	fmt.Fprintf(&b, "%s Leave message empty to abort commit.\n", CommentPrefix)
	fmt.Fprintf(&b, "%s --\n", CommentPrefix)
	if info.Branch != "" {
		fmt.Fprintf(&b, "%s branch '%s'\n", CommentPrefix, info.Branch)
	}
	verb := "changed"
	switch info.Status {
	case "added":
		verb = "added"
	case "removed":
		verb = "removed"
	}
	fmt.Fprintf(&b, "%s %s %s\n", CommentPrefix, verb, info.Path)
	return b.String()
}

// CleanCommitMessage strips comment lines and surrounding blank lines from
// an edited commit message. Trailing whitespace is removed from every
// line. A message with no text left is model.ErrEmptyCommitMessage.
func CleanCommitMessage(text string) (string, error) {
	var kept []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}

	msg := strings.Trim(strings.Join(kept, "\n"), "\n")
	if strings.TrimSpace(msg) == "" {
		return "", model.ErrEmptyCommitMessage
	}
	return msg, nil
}
