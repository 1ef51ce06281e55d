/*
Package wire implements the external formats of ink stories.

Compiled stories are JSON documents of the form

    { "inkVersion": 20, "root": <container>, "listDefs": { ... } }

Containers are arrays of content tokens, terminated by either null or an
object holding named-only sub-containers, count flags ("#f") and the
container's name ("#n"). Content objects use a dense token scheme: text is a
string prefixed by '^', glue is "<>", control commands and native operators
are plain strings, and diverts, choice points, variable references,
assignments, tags and list values are small objects keyed by a marker
("->", "*", "VAR?", "VAR=", "#", "list", …).

The same token scheme is used by save states (see package story). Token
trees are built from Go maps, slices and scalars; Dict keeps the order of
keys when writing. Token trees may be written as JSON or as canonical CBOR.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package wire

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'goink.wire'.
func tracer() tracing.Trace {
	return tracing.Select("goink.wire")
}
