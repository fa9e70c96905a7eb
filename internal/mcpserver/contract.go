package mcpserver

// ProtocolFormatContract describes the design protocol file format that
// LLM consumers should follow when importing protocols.
const ProtocolFormatContract = `# Linkograph Protocol Format Contract

A design protocol is a Markdown file that records the moves of a design
session and the links between them. Each file becomes one stored linkograph.

## Structure

` + "```" + `markdown
---
title: Chair study          # OPTIONAL - defaults to the first "# " heading, then the file name
move_count: 5               # OPTIONAL - defaults to the highest move number seen
links:                      # OPTIONAL - pairs or mappings, move1 < move2
  - [1, 4]
  - {move1: 2, move2: 5}
---

1. Sketch seat outline
2. Consider materials [[1]]
3. Refine handle [[1]] [[2]]
4. Check ergonomics
5. Final render [[2]]
` + "```" + `

## Rules

1. **Moves** are numbered list items (` + "`" + `3. text` + "`" + ` or ` + "`" + `3) text` + "`" + `), numbered from 1.
   Missing numbers get the name ` + "`" + `Move i` + "`" + `.
2. **Back-links**: ` + "`" + `[[k]]` + "`" + ` on move n links moves k and n. Self-references are ignored.
3. **Frontmatter links** are merged with back-links; duplicates count once.
4. **At least two moves, at most 10000.** Every link must satisfy
   1 <= move1 < move2 <= move_count. Frontmatter links exported from a 0-based
   tool need ` + "`" + `zero_based: true` + "`" + ` and are renumbered from 1.
5. **Malformed frontmatter** rejects the whole file.
6. **File names** end with ` + "`" + `.md` + "`" + `, use Latin letters, digits, ` + "`" + `.` + "`" + `, ` + "`" + `_` + "`" + ` and ` + "`" + `-` + "`" + `, and do
   not start with a dot. Importing a name that already exists replaces that protocol.
7. **Encoding** is UTF-8.

## Analysis

- *Entropy* sums -p log2 p over the link count of every row (move distance) and over
  the empty points, each divided by the point space N(N-1)/2.
- *Row statistics* binarise every row into linked and empty slots and count runs.
- *Creativity score* feeds the row statistics through Wald-Wolfowitz runs tests and a
  logistic model of move count, total runs and summed p-values.
`
