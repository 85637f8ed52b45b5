package mcpserver

// NoteFormatContract describes the Markdown notes notesift reads, so LLM
// consumers know which fields feed titles, tags and categories.
const NoteFormatContract = `# notesift Note Format

notesift never writes notes. It reads every ` + "`" + `.md` + "`" + ` file under the vault root.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL, defaults to the filename
tags: [tag-one, tag-two]            # OPTIONAL, YAML list of strings
date: 2025-01-15                    # OPTIONAL, parsed but not used
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. The preamble is optional. When present, the ` + "`" + `---` + "`" + ` fence opens the file
   (leading blank lines are tolerated) and a second ` + "`" + `---` + "`" + ` line closes it.
2. A preamble that is not valid YAML, or whose fields have the wrong type, is
   ignored as a whole: the title falls back to the filename and tags are empty.
3. The **category** of a note is its directory path relative to the vault root.
   Directory names containing a dot are left out of the category.
4. Files must be UTF-8 text; anything else is skipped.
5. Search patterns are matched against
   ` + "`" + `filename title tags category content` + "`" + `, each list joined by single
   spaces, so ` + "`" + `^plan\.md` + "`" + ` anchors on the filename.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.
` + "```" + `
`
