/*
Package goink is a runtime for compiled ink stories.

ink is a narrative scripting language. Its compiler produces a JSON document
consisting of nested containers of text, choices, diverts, variables and
control commands. GoInk executes such documents: it walks the content tree,
keeps call stacks and threads for tunnels, functions and choices, evaluates
expressions and native operators, and supports saving and restoring story
state. Package structure is as follows:

■ content: Package content implements the immutable content model of a story:
paths, containers, pointers, values, lists and all the other node types.

■ runtime: Package runtime implements the call stack (frames and threads) and
the variable scope (globals, temporaries, state patches).

■ wire: Package wire implements the JSON document format and the token scheme
shared with save states, plus a compact binary encoding.

■ story: Package story implements the interpreter loop and the host API.

■ player: Package player implements a small interactive story player; the
command line tool lives in player/inkplay.

The base package contains the error taxonomy shared by all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package goink
