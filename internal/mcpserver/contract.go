package mcpserver

// CatalogFormatContract describes the apps document that LLM consumers
// should follow when adding or editing launcher entries.
const CatalogFormatContract = `# Launchpad Catalog Format Contract

The launcher page is driven by a single JSON document:

` + "```" + `json
{
  "apps": [
    {
      "id": "docs",
      "title": "Documentation",
      "shortDescription": "Project documentation",
      "longDescription": "Guides, references and examples for the project.",
      "icon": "/uploads/docs-3f2a9c1b7e4d.svg",
      "url": "https://example.com/docs",
      "iconBg": "primary"
    }
  ]
}
` + "```" + `

## Rules

1. **All seven fields are required** and must be non-empty strings.
2. **` + "`" + `id` + "`" + `** identifies an entry. Saving an entry with an existing id replaces it in place.
3. **Order matters.** Apps render in document order; new entries are appended.
4. **` + "`" + `iconBg` + "`" + `** is a presentation hint: ` + "`" + `primary` + "`" + `, ` + "`" + `secondary` + "`" + `, ` + "`" + `accent` + "`" + ` or ` + "`" + `neutral` + "`" + `.
   Unknown values render as neutral.
5. **` + "`" + `url` + "`" + `** is opened as-is; use absolute http(s) URLs.
6. Writes replace the whole document. Concurrent editors overwrite each other; the last save wins.

## Icons

- Upload icons via the ` + "`" + `upload_icon` + "`" + ` tool. It returns a ` + "`" + `path` + "`" + ` field to use as ` + "`" + `icon` + "`" + `.
- Only png and svg are accepted.
- Stored names are ` + "`" + `<app id>-<content hash><ext>` + "`" + `; uploading the same bytes twice returns the same path.
- Uploading does not change the catalog. Call ` + "`" + `save_app` + "`" + ` afterwards to reference the icon.
`
