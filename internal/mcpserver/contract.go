package mcpserver

// SnoozeFormatContract describes how snooze state is persisted inside a
// note, for MCP consumers that edit notes directly.
const SnoozeFormatContract = `# Reboard Snooze Frontmatter Contract

Snooze state lives in two paired keys in a note's frontmatter. There is no
separate database: the note is the source of truth.

## Structure

` + "```" + `markdown
---
reboard_snooze_interval: 24
reboard_snooze_expire: 2025-06-01 09:30:00
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **The keys are paired.** A note carrying only one of them is treated as
   not snoozed, and the orphan key is removed on the next snooze edit.
2. ` + "`" + `reboard_snooze_interval` + "`" + ` is the snooze duration in whole hours. It is
   also the escalation bookmark: snoozing an already-snoozed note advances
   to the next configured tier above this value.
3. ` + "`" + `reboard_snooze_expire` + "`" + ` is the local-time expiry in
   ` + "`" + `YYYY-MM-DD HH:MM:SS` + "`" + ` form. Raw epoch-millisecond numbers written by old
   versions are still understood and rewritten on the next edit.
4. A note is snoozed iff the expiry is in the future. Expired entries are
   cleared by the board sweep.
5. All other frontmatter keys are left untouched by snooze edits, and a
   header that would become empty is removed entirely.
`
