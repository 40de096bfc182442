package mcpserver

// AnnotationFormatContract describes the canonical marginalia annotation
// syntax that LLM consumers should follow when reading or writing
// annotated Markdown.
const AnnotationFormatContract = `# Marginalia Annotation Format Contract

Annotations are embedded in ordinary Markdown inside comment spans.

## Syntax

` + "```" + `markdown
The host sentence being annotated. %%> annotation text %%
A left-margin note. %%< annotation text %%
` + "```" + `

- ` + "`" + `%%>` + "`" + ` renders the note in the right margin, ` + "`" + `%%<` + "`" + ` in the left margin.
- The span is invisible in reading view; only the margin widget shows.

## Rules

1. **Tags.** The first configured tag prefix found at the start of the note
   colors it (first match wins). Defaults: ` + "`" + `!` + "`" + ` important, ` + "`" + `?` + "`" + ` question,
   ` + "`" + `X-` + "`" + ` disagree, ` + "`" + `V-` + "`" + ` agree. The prefix is stripped from the displayed text.
2. **Flashcards.** End the note text with ` + "`" + `;;` + "`" + ` to flag it for spaced-repetition
   extraction. The generate_flashcards tool collects flagged lines into a
   ` + "`" + `### Flashcards` + "`" + ` section as ` + "`" + `question :: answer` + "`" + ` pairs.
3. **Images.** Embed with ` + "`" + `img:[[filename.png]]` + "`" + ` inside the span. The file is
   resolved by base name anywhere in the vault.
4. **Thread links.** ` + "`" + `[[document#^blockid]]` + "`" + ` inside a span links this
   annotation to another one. Links are removed from the displayed text and
   drive the cross-document thread graph.
5. **Block IDs.** A trailing ` + "`" + `^blockid` + "`" + ` on the host line makes the
   annotation addressable. The stitch tool assigns fresh 6-character IDs when
   missing; never invent colliding IDs by hand.
6. **Empty notes.** A span whose text is empty after stripping (links only,
   images only) shows no text widget; image-only spans show ` + "`" + `(image)` + "`" + `.
7. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.

## Example

` + "```" + `markdown
The unexamined life is not worth living. %%> ! core claim;;%% ^k2d9f1

Socrates echoes this at his trial. %%> see [[apology#^k2d9f1]] %%
` + "```" + `
`
