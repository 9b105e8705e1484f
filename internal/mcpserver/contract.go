package mcpserver

// EnvelopeFormatContract describes the content envelope carried in scan
// targets, for LLM consumers that build or inspect codes.
const EnvelopeFormatContract = `# PhotoPlay Envelope Format

A scan target is a URL of the form

    <base>?data=<percent-encoded envelope>

where <base> is the consumer page (default https://qr-ar-voice.web.app/play)
and the envelope is a JSON object with exactly these keys, in this order:

` + "```" + `json
{"type":"voice","content":"https://…","timestamp":"2025-01-01T00:00:00.000Z","app":"PhotoPlay"}
` + "```" + `

## Fields

- ` + "`" + `type` + "`" + `: ` + "`" + `voice` + "`" + ` (a stored recording) or ` + "`" + `link` + "`" + ` (any web page).
- ` + "`" + `content` + "`" + `: absolute URL. For recordings it is the storage download URL.
- ` + "`" + `timestamp` + "`" + `: creation time, UTC, millisecond precision.
- ` + "`" + `app` + "`" + `: producing application, normally ` + "`" + `PhotoPlay` + "`" + `.

## Encoding rules

1. The envelope is encoded exactly once, with encodeURIComponent semantics
   (everything except ` + "`" + `A-Z a-z 0-9 - _ . ! ~ * ' ( )` + "`" + ` is escaped as %XX).
2. Never pre-encode ` + "`" + `content` + "`" + `. A storage URL keeps its own escapes, so
   ` + "`" + `audio%2Fclip.webm` + "`" + ` appears as ` + "`" + `audio%252Fclip.webm` + "`" + ` in the scan target.
3. Storage download URLs must escape the namespace separator:
   ` + "`" + `…/o/audio%2Fclip.webm?alt=media&token=…` + "`" + `. A literal slash after ` + "`" + `/o/` + "`" + `
   makes the object unfetchable; use ` + "`" + `normalize_storage_url` + "`" + ` to repair it.

## Tools

- ` + "`" + `assemble_payload` + "`" + `: build a scan target for a link.
- ` + "`" + `upload_voice` + "`" + `: store a recording (data URI or http(s) URL) and build its scan target.
- ` + "`" + `resolve_payload` + "`" + `: decode a scanned URL back into its envelope.
- ` + "`" + `normalize_storage_url` + "`" + `: rebuild a download URL with the separator escaped.
- ` + "`" + `list_payloads` + "`" + `: page through codes created on this instance.
`
