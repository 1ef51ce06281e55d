/*
Package content implements the content model of compiled ink stories.

A story is a tree of containers. Containers hold an ordered sequence of
objects: text, values, glue, control commands, diverts, choice points,
variable references and assignments, native operator calls and tags.
Containers may also hold named sub-containers which are not part of the
ordered content and are only reachable by name (knots and stitches, for
example).

Content is addressed by paths. A path is a sequence of components, each of
which is either an index into a container's content, a name of a
sub-container, or a step up to the parent container. Paths may be absolute
(starting at the root) or relative to the container holding the path.
Resolving a path never fails outright: if a component cannot be found, the
deepest container reached so far is returned and the result is flagged as
approximate. This lets a saved story state be loaded against a slightly
changed document.

Objects are immutable once the tree has been built. The interpreter keeps
its state elsewhere (see packages runtime and story) and refers to content
by pointers, i.e. (container, index) pairs.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package content

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'goink.content'.
func tracer() tracing.Trace {
	return tracing.Select("goink.content")
}
