/*
Package player runs ink stories for a human player.

A Session wraps a story. Step continues the story as far as possible and
collects the lines, tags and choices produced. Execute interprets a line of
player input: a number picks a choice, everything else is a command
starting with a colon:

    1                     pick the first choice
    :path knot.stitch     divert to a knot or stitch
    :eval fn 1 "two"      call an ink function
    :var name             print a global variable
    :set name value       assign a global variable
    :flow name            switch to (or create) a flow
    :flows                list the flows
    :save / :load         save to or restore from an in-memory slot
    :help / :quit

Configuration

Players read an optional TOML configuration file:

    [player]
    prompt    = "ink> "
    trace     = "Info"
    budget_ms = 20
    seed      = 7
    fallbacks = true

    [bindings]
    get_name = "Ann"    # external function returning a canned value

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package player

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'goink.player'.
func tracer() tracing.Trace {
	return tracing.Select("goink.player")
}
