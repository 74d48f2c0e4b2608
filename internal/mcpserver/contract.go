package mcpserver

// NoteFormatContract describes the note text conventions that LLM consumers
// should follow when creating or updating notes.
const NoteFormatContract = `# notegraph Note Format Contract

Notes are identified by an opaque id. Tools that write notes take plain text;
the text is stored as the note body and indexed for search.

## Conventions

1. **Title.** Pass it as the ` + "`" + `title` + "`" + ` argument. Do not repeat it as the first line.
2. **Tags** are written inline as ` + "`" + `#tag` + "`" + `. They are lowercased and must start with a
   letter (` + "`" + `#2024` + "`" + ` is not a tag). Tags are re-derived on every save.
3. **Wikilinks** use double brackets with the target note's title:
   ` + "`" + `[[Project X]]` + "`" + ` or ` + "`" + `[[Project X|display text]]` + "`" + `. Titles match case-insensitively.
   A link to a title that does not exist yet is kept and resolves once such a note exists.
4. **Flashcards** are a ` + "`" + `Q:` + "`" + ` line whose next non-blank line starts with ` + "`" + `A:` + "`" + `. Editing the
   answer keeps the card's review schedule; changing the question creates a new card.
5. **Encoding** is UTF-8. Markdown is allowed in the body and is kept on export.

## Example

` + "```" + `text
Attendees: Alice, Bob. #meeting #project-x

Action: [[Alice]] reviews the [[Design Doc]].

Q: When is the launch?
A: March 30
` + "```" + `
`
