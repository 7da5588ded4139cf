package mcpserver

// PostFormatURI is the resource URI under which PostFormat is published.
const PostFormatURI = "folio://post-format"

// PostFormat describes how folio stores a blog post, for LLM clients that
// create or edit posts.
const PostFormat = `# Folio Post Format

Each post is one file, ` + "`" + `<slug>.md` + "`" + `, in a single flat directory.

## Structure

` + "```" + `markdown
---
title: My First Post
date: 2025-03-14
excerpt: One line shown in post lists
---

Markdown body.
` + "```" + `

## Rules

1. The file starts with a line containing exactly ` + "`" + `---` + "`" + `. Header lines follow
   until the next ` + "`" + `---` + "`" + ` line.
2. Each header line is ` + "`" + `key: value` + "`" + `. Only the first colon splits, so values may
   contain colons. Values are single-line plain text; there is no YAML quoting,
   lists or nesting.
3. Known keys are ` + "`" + `title` + "`" + `, ` + "`" + `date` + "`" + ` and ` + "`" + `excerpt` + "`" + `. Other keys are ignored.
4. A missing title reads as "Untitled"; a missing date reads as today.
5. ` + "`" + `date` + "`" + ` should be ` + "`" + `YYYY-MM-DD` + "`" + `. Posts are listed newest first.
6. A file without a header is still a post: the whole file is its body.

## Slugs

Slugs are derived from the requested name: lower-cased, every run of
characters outside ` + "`" + `a-z` + "`" + `, ` + "`" + `0-9` + "`" + ` and ` + "`" + `-` + "`" + ` becomes one ` + "`" + `-` + "`" + `, and leading or
trailing hyphens are dropped. "My First Post!" becomes ` + "`" + `my-first-post` + "`" + `.

## Tools

- Use ` + "`" + `create_post` + "`" + ` and ` + "`" + `update_post` + "`" + ` with separate fields. Do not put the
  header inside ` + "`" + `content` + "`" + `; the server writes it.
- ` + "`" + `create_post` + "`" + ` never overwrites. Pick another slug on conflict.
- ` + "`" + `update_post` + "`" + ` replaces every field. Read the post first and pass its
  ` + "`" + `etag` + "`" + ` as ` + "`" + `if_match` + "`" + ` to avoid clobbering a concurrent edit.
- Passing ` + "`" + `new_slug` + "`" + ` moves the post. Moving onto an existing slug fails.
`
