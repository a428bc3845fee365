package mcpserver

// FrontmatterContract describes the canonical frontmatter block that a sync
// produces, so LLM consumers can write notes that are already in place.
const FrontmatterContract = `# parasync Frontmatter Contract

Every note in the vault is normalized to this shape on each sync.

## Block

` + "```" + `markdown
---
created: <% tp.file.creation_date() %>
para: area
category: family
subcategory: school
priority: 1
tags:
  - homework
  - kids
archived: false
---
Body text.
` + "```" + `

## Rules

1. The block is the first thing in the file: a ` + "`---`" + ` line, key lines, a ` + "`---`" + ` line.
2. Keys appear in this order: created, para, category, subcategory, priority, tags, archived.
   Every key is present; an unset value is written as a bare ` + "`key:`" + ` line.
3. Other keys are dropped on the next rewrite. The legacy keys project, resource and area
   are always removed; a non-empty area value becomes the subcategory when none is set.
4. **para** and **category** come from the folder: ` + "`01 - Projects`" + `, ` + "`02 - Areas`" + `,
   ` + "`03 - Resources`" + `, ` + "`04 - Archive`" + `, ` + "`05 - Journal`" + `, ` + "`00 - Inbox`" + `.
   The category is the lower-cased folder directly below a project, area or resource root.
   Anything under ` + "`04 - Archive`" + ` is ` + "`archived: true`" + `.
5. Values already in the block are kept. A sync only fills gaps, merges tags and reorders.
6. **tags** is a list of lower-case entries, one ` + "`  - tag`" + ` line each, sorted.

## Inline tags

- ` + "`#cat-<word>`" + ` sets subcategory, ` + "`#p<digits>`" + ` sets priority, any other ` + "`#tag`" + ` joins tags.
- Inline tags are removed from the body once they are captured in the block.
- A ` + "`#`" + ` inside a URL, an autolink ` + "`<...>`" + ` or a Markdown link is never a tag.
- Tags that look like URL fragments (utm_*, ref-*, long hex or digit runs,
  *-wrapper, *-container, *-section) are discarded.

## Placement

A note in a sub-folder of a project, area, resource, archive or inbox root is moved
directly under that root; name clashes get ` + "`_1`" + `, ` + "`_2`" + `, … before the extension.
Journal notes keep their folders.
`
