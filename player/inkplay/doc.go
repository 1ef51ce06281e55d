/*
Command inkplay plays a compiled ink story (JSON) on the terminal.

    inkplay [-config player.toml] [-trace Info] [-budget 20] [-seed 7] story.json

If standard input is a terminal, inkplay runs interactively, with line
editing and history. Otherwise it reads one command per line from standard
input and writes the story to standard output, which is handy for
scripted play-throughs:

    printf '1\n2\n:var\n' | inkplay story.json

Please refer to package player for the commands understood.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'goink.inkplay'
func tracer() tracing.Trace {
	return tracing.Select("goink.inkplay")
}
