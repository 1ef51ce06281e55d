/*
Package runtime implements the runtime environment of a story: call stacks
of threads holding frames with temporary variables, global variables with
their default values, and state patches for speculative evaluation.

Call Stack

A call stack consists of one or more threads. Each thread is a stack of
frames, pushed by tunnels and function calls. Threads are pushed when
gathering choices from woven content; a choice remembers a fork of the thread
it was generated in, so that choosing it later resumes with the right frames.

Variables

Global variables live in a symbol table, backed by a snapshot of their
default values as declared in the story. Temporary variables live in
the frames of the call stack. A variable is addressed by name and a context
index: 0 denotes the global context, n > 0 denotes the n-th frame of the
current thread.

Patches

While the interpreter evaluates content ahead of the current output, changes
to globals, visit counts and turn indices are recorded in a state patch, to
be either applied or discarded later.


----------------------------------------------------------------------

BSD License

Copyright (c) 2017-21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions
are met:

1. Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright
notice, this list of conditions and the following disclaimer in the
documentation and/or other materials provided with the distribution.

3. Neither the name of this software or the names of its contributors
may be used to endorse or promote products derived from this software
without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE. */
package runtime

import (
	"github.com/npillmayer/schuko/tracing"
)

// T traces to the runtime tracer, selected by key 'goink.runtime'.
func T() tracing.Trace {
	return tracing.Select("goink.runtime")
}
