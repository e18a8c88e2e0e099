package mcpserver

const contentFormatURI = "inkwell://content-format"

// ContentFormat documents the files the content importer reads.
const ContentFormat = `# inkwell content format

Every *.md file under the content directory is one post.

## Frontmatter

` + "```yaml" + `
---
title: Hello World          # default: first "# " heading
slug: hello-world           # default: file name without extension
author: alice               # account id, required
category: go                # category slug, optional
published: true             # default: false (draft)
published_at: 2024-03-01T10:00:00Z
created_at: 2024-03-01T09:00:00Z   # default: file modification time
excerpt: Short summary      # default: first 200 characters of the body
---
` + "```" + `

The post id is derived from the file path, so editing a file keeps its likes,
comments and views. Deleting the file deletes the post.

## Reference data

accounts.yaml:

` + "```yaml" + `
accounts:
  - id: alice
    display_name: Alice
    avatar: https://example.com/alice.png
    active: true
` + "```" + `

categories.yaml:

` + "```yaml" + `
categories:
  - id: cat-go
    name: Go
    slug: go
    color: "#00ADD8"
` + "```" + `
`
