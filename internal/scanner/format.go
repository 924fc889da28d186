package scanner

import (
	"fmt"
	"strings"
)

// maxPromptOtherFiles caps the OTHER FILES section of a formatted listing.
const maxPromptOtherFiles = 10

// EmptyListingText is what Format renders for a directory with nothing usable.
const EmptyListingText = "Folder is empty or contains no accessible items."

// Format renders a listing in the text layout the decision prompt expects:
//
//	FOLDERS:
//	  - <name> -> <path>
//
//	EXECUTABLES:
//	  - <name> -> <path>
//
//	OTHER FILES:
//	  - <name> -> <path>
//
//	Total: <N> folders, <M> executables
//
// Empty sections are omitted.
func Format(l *Listing) string {
	if l.IsEmpty() {
		return EmptyListingText
	}

	var sections []string
	if len(l.Folders) > 0 {
		sections = append(sections, section("FOLDERS:", l.Folders, len(l.Folders)))
	}
	if len(l.Executables) > 0 {
		sections = append(sections, section("EXECUTABLES:", l.Executables, len(l.Executables)))
	}
	if len(l.OtherFiles) > 0 {
		sections = append(sections, section("OTHER FILES:", l.OtherFiles, maxPromptOtherFiles))
	}
	sections = append(sections, fmt.Sprintf("Total: %d folders, %d executables", l.TotalFolders, l.TotalExecutables))

	return strings.Join(sections, "\n\n")
}

func section(title string, entries []Entry, limit int) string {
	var b strings.Builder
	b.WriteString(title)
	for i, e := range entries {
		if i >= limit {
			break
		}
		fmt.Fprintf(&b, "\n  - %s -> %s", e.Name, e.Path)
	}
	return b.String()
}
