package mcpserver

// FrontmatterContract describes the canonical article source format that
// LLM consumers should follow when reading or authoring posts.
const FrontmatterContract = `# Stele Article Format Contract

Every Markdown article served by Stele MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title          # REQUIRED – display name everywhere
date: 2025-01-15                     # REQUIRED – ISO-8601 date or datetime
description: One-line summary        # OPTIONAL – used in listings
categories:                          # OPTIONAL – YAML list or single string
  - engineering
  - go
published: true                      # OPTIONAL – defaults to true; false hides the post
link: https://example.com/elsewhere  # OPTIONAL – canonical URL when syndicated
redirect_from:                       # OPTIONAL – legacy paths that 301 to this post
  - /old/path
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **YAML front-matter is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines), and the closing fence must be present.
2. **` + "`" + `title` + "`" + ` and ` + "`" + `date` + "`" + ` are required.** A file missing either is rejected
   at load time and fails the whole reload.
3. **The slug is the file path.** ` + "`" + `topics/redux.md` + "`" + ` is served as ` + "`" + `topics/redux` + "`" + `.
   File paths end with ` + "`" + `.md` + "`" + ` and use forward slashes.
4. **` + "`" + `redirect_from` + "`" + ` entries** are site-relative paths (leading slash optional).
   Each alias may belong to exactly one post and must not collide with a slug.
5. **Categories** are lowercase, kebab-case (e.g. ` + "`" + `distributed-systems` + "`" + `).
6. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Snapshot isolation in five minutes
date: 2025-01-20
description: A quick tour of snapshot isolation semantics.
categories:
  - databases
---

# Snapshot isolation in five minutes

Body goes here.
` + "```" + `
`
