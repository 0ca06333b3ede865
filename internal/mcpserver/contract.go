package mcpserver

// EntryFormatContract describes the payload rules that LLM consumers must
// follow when adding entries through the MCP tools.
const EntryFormatContract = `# Laguz Entry Format Contract

Every entry added to a log book carries exactly ONE payload variant,
selected by the ` + "`kind`" + ` argument.

## Kinds

| kind          | value argument      | rules                                          |
|---------------|---------------------|------------------------------------------------|
| number        | ` + "`number`" + `          | a single decimal, e.g. 72.5                    |
| number_array  | ` + "`number_array`" + `    | decimals separated by commas and/or newlines   |
| short_text    | ` + "`text`" + `            | at most 200 characters                         |
| long_text     | ` + "`text`" + `            | unbounded                                      |

## Rules

1. **Pick exactly one kind.** Arguments for other kinds are ignored.
2. **number_array** is parsed segment by segment: whitespace is trimmed,
   empty segments are dropped, and the first segment that is not a valid
   decimal rejects the whole entry (nothing is stored).
3. **occurred_at** is optional RFC 3339; it defaults to the current time.
4. **Log book slugs** are lowercase and hyphenated, derived from the title
   at creation (e.g. "Trip Notes" -> trip-notes). Duplicate titles get a
   numeric suffix: trip-notes-2, trip-notes-3.

## Example

` + "```" + `
add_entry
  slug:         morning-runs
  kind:         number_array
  number_array: 5.2, 4.8, 6.1
` + "```" + `
`
