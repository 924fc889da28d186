package navigator

import (
	"fmt"
	"strings"

	"github.com/normanking/alquad/internal/scanner"
)

func (e *Engine) systemPrompt() string {
	labels := make([]string, len(e.partitions))
	for i, p := range e.partitions {
		labels[i] = p.Label()
	}

	return fmt.Sprintf(`You are a file system navigator. Your job is to help the user find and open files, folders and applications on their computer.

AVAILABLE PARTITIONS: %s

YOUR WORKFLOW:
1. I show you the contents of one folder at a time.
2. Find the item in the listing that best matches the user's request.
3. Respond with ONLY a JSON object in exactly one of these forms:
   {"action": "explore", "path": "full_path_to_folder"}
   {"action": "open", "path": "full_path_to_file_or_folder"}
   {"action": "not_found", "reason": "explanation"}

RULES:
- Only choose items whose names contain keywords from the request, allowing for partial words, variations and spelling mistakes.
- If several items in the current folder match, the current folder is probably the target: open it.
- Prefer real folders and programs over setup or install files unless the user asks for setup.
- Copy paths exactly as shown after "->" in the listing. Do not invent paths.
- Escape backslashes in JSON strings (use \\ for \).

Respond ONLY with valid JSON, no other text.`, strings.Join(labels, ", "))
}

func (e *Engine) prompt(req *request, f Frame, l *scanner.Listing) string {
	return fmt.Sprintf(`%s

User Query: %q

Current Location: %s

Folder Contents:
%s

Which item should I explore or open next?

DECISION RULES:
1. If the current folder holds several items matching the request, open the current folder: %q
2. If an item matches the request exactly, open it.
3. If a folder might contain what the user wants, explore it.
4. Synonymous folder names count as matches.
5. Only answer not_found when nothing could match.`, e.systemPrompt(), req.raw, f.Path, scanner.Format(l), f.Path)
}
