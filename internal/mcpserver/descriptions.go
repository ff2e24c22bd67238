package mcpserver

// Tool descriptions explain when to use a tool and how to read its output.

func describeFindUnusedExports() string {
	return `Finds exported declarations in a TypeScript or JavaScript project that no other code uses.

USE WHEN:
- Cleaning up a codebase before or after a refactoring
- Checking that a library's public surface is actually consumed
- Finding groups of exports that only keep each other alive

MODES:
- whole-program (default): an export is used if any project file references it
- root-based: enabled by passing roots or root tags; only code reachable from
  the roots is used, so unreachable mutually recursive exports are reported

INTERPRETING RESULTS:
- diagnostics: one per unused export, with file, position and a removal fix
- kind named-declaration-unused: a named export; data.varName holds the name
- kind anonymous-export-unused: an export default of an expression
- kind root-file-not-found / root-export-not-found: a root could not be
  resolved; these are repeated on every file and should be fixed first
- dead_cycles: exports only referenced from each other (root-based mode)
- summary: total exports, unused count and per-file counts`
}
