/*
Package story implements the interpreter for compiled ink stories and its
host API.

A story is created from a compiled JSON document. The host then calls
Continue to get the story's text line by line, inspects the choices
presented when the story cannot continue, and picks one of them:

    s, err := story.New(doc)
    ...
    for s.CanContinue() {
        line, err := s.Continue()
        ...
    }
    for _, c := range s.CurrentChoices() {
        fmt.Println(c.Text)
    }
    err = s.ChooseChoiceIndex(0)

Lookahead

ink text may be glued to the following text, removing a newline which has
already been produced. To decide whether a line has really ended, the
interpreter evaluates content beyond the newline on a copy of the story
state, which records changes in a state patch. If further text appears, the
line is complete: the changes of the patch are committed and the text beyond
the newline is held back for the next call to Continue. If glue removes the
newline, evaluation simply goes on. If a host function which is not safe to
call ahead of time is encountered, the copy is thrown away and evaluation
resumes at the newline on the next call to Continue.

Errors

Story errors never panic. Errors and warnings are collected in the story
state; with an error handler installed (see WithErrorHandler) they are
passed to the handler after each continuation, otherwise Continue returns
them as a *goink.Issues. An error stops the story, a warning does not.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package story

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'goink.story'.
func tracer() tracing.Trace {
	return tracing.Select("goink.story")
}
