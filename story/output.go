package story

import (
	"strings"

	"github.com/npillmayer/goink/content"
)

// Output stream of the current flow. Text is pushed piecewise; glue and the
// end of function output trim whitespace which has already been pushed.

// pushToOutputStream appends an object to the output. Text with leading or
// trailing newlines is split up, so that newlines are separate objects.
func (s *State) pushToOutputStream(obj content.Object) {
	if text, ok := obj.(*content.StringValue); ok {
		if parts := splitHeadTailWhitespace(text.V); parts != nil {
			for _, part := range parts {
				s.pushToOutputStreamIndividual(&content.StringValue{V: part})
			}
			return
		}
	}
	s.pushToOutputStreamIndividual(obj)
}

// splitHeadTailWhitespace splits a string at leading and trailing newlines:
// "\n\nabc\n " yields "\n", "abc", "\n", " ". Returns nil if str has neither
// leading nor trailing newlines.
func splitHeadTailWhitespace(str string) []string {
	headFirstNewline, headLastNewline := -1, -1
	for i := 0; i < len(str); i++ {
		c := str[i]
		if c == '\n' {
			if headFirstNewline == -1 {
				headFirstNewline = i
			}
			headLastNewline = i
		} else if c != ' ' && c != '\t' {
			break
		}
	}
	tailLastNewline, tailFirstNewline := -1, -1
	for i := len(str) - 1; i >= 0; i-- {
		c := str[i]
		if c == '\n' {
			if tailLastNewline == -1 {
				tailLastNewline = i
			}
			tailFirstNewline = i
		} else if c != ' ' && c != '\t' {
			break
		}
	}
	if headFirstNewline == -1 && tailLastNewline == -1 {
		return nil
	}
	var parts []string
	innerStart, innerEnd := 0, len(str)
	if headFirstNewline != -1 {
		if headFirstNewline > 0 {
			parts = append(parts, str[:headFirstNewline])
		}
		parts = append(parts, "\n")
		innerStart = headLastNewline + 1
	}
	if tailLastNewline != -1 {
		innerEnd = tailFirstNewline
	}
	if innerEnd > innerStart {
		parts = append(parts, str[innerStart:innerEnd])
	}
	if tailLastNewline != -1 && tailFirstNewline > headLastNewline {
		parts = append(parts, "\n")
		if tailLastNewline < len(str)-1 {
			parts = append(parts, str[tailLastNewline+1:])
		}
	}
	return parts
}

func (s *State) pushToOutputStreamIndividual(obj content.Object) {
	include := true
	switch x := obj.(type) {
	case *content.Glue:
		s.trimWhitespaceBeforeGlue()
	case *content.StringValue:
		functionTrimIndex := -1
		if top := s.callStack().CurrentElement(); top.Type() == content.Function {
			functionTrimIndex = top.FunctionStartInOutputStream
		}
		glueTrimIndex := -1
		for i := s.flow.output.Size() - 1; i >= 0; i-- {
			o, _ := s.flow.output.Get(i)
			if _, isGlue := o.(*content.Glue); isGlue {
				glueTrimIndex = i
				break
			}
			if isCommand(o, content.BeginString) {
				if i >= functionTrimIndex {
					functionTrimIndex = -1
				}
				break
			}
		}
		// The earlier of both trim indices wins.
		trimIndex := glueTrimIndex
		if trimIndex == -1 || (functionTrimIndex != -1 && functionTrimIndex < trimIndex) {
			trimIndex = functionTrimIndex
		}
		if trimIndex != -1 {
			if x.IsNewline() {
				include = false
			} else if x.IsNonWhitespace() {
				if glueTrimIndex > -1 {
					s.removeExistingGlue()
				}
				if functionTrimIndex > -1 {
					frames := s.callStack().Elements()
					for i := len(frames) - 1; i >= 0 && frames[i].Type() == content.Function; i-- {
						frames[i].FunctionStartInOutputStream = -1
					}
				}
			}
		} else if x.IsNewline() {
			if s.outputStreamEndsInNewline() || !s.outputStreamContainsContent() {
				include = false
			}
		}
	}
	if include {
		s.flow.output.Add(obj)
	}
}

// trimWhitespaceBeforeGlue removes the trailing run of whitespace text,
// back to the last non-whitespace text or control command.
func (s *State) trimWhitespaceBeforeGlue() {
	removeFrom := -1
	for i := s.flow.output.Size() - 1; i >= 0; i-- {
		o, _ := s.flow.output.Get(i)
		if _, isCmd := o.(*content.ControlCommand); isCmd {
			break
		}
		if text, ok := o.(*content.StringValue); ok {
			if text.IsNonWhitespace() {
				break
			}
			removeFrom = i
		}
	}
	if removeFrom < 0 {
		return
	}
	for i := removeFrom; i < s.flow.output.Size(); {
		if o, _ := s.flow.output.Get(i); isText(o) {
			s.flow.output.Remove(i)
		} else {
			i++
		}
	}
}

// removeExistingGlue removes glue back to the last control command.
func (s *State) removeExistingGlue() {
	for i := s.flow.output.Size() - 1; i >= 0; i-- {
		o, _ := s.flow.output.Get(i)
		if _, isGlue := o.(*content.Glue); isGlue {
			s.flow.output.Remove(i)
		} else if _, isCmd := o.(*content.ControlCommand); isCmd {
			break
		}
	}
}

// trimWhitespaceFromFunctionEnd removes trailing whitespace produced by the
// function in the topmost frame.
func (s *State) trimWhitespaceFromFunctionEnd() {
	start := s.callStack().CurrentElement().FunctionStartInOutputStream
	if start == -1 {
		start = 0
	}
	for i := s.flow.output.Size() - 1; i >= start; i-- {
		o, _ := s.flow.output.Get(i)
		if _, isCmd := o.(*content.ControlCommand); isCmd {
			break
		}
		text, ok := o.(*content.StringValue)
		if !ok {
			continue
		}
		if !text.IsNewline() && !text.IsInlineWhitespace() {
			break
		}
		s.flow.output.Remove(i)
	}
}

func (s *State) popFromOutputStream(count int) {
	for ; count > 0 && s.flow.output.Size() > 0; count-- {
		s.flow.output.Remove(s.flow.output.Size() - 1)
	}
}

// outputStreamEndsInNewline is true if the last text output, after any
// whitespace, is a newline.
func (s *State) outputStreamEndsInNewline() bool {
	for i := s.flow.output.Size() - 1; i >= 0; i-- {
		o, _ := s.flow.output.Get(i)
		if _, isCmd := o.(*content.ControlCommand); isCmd {
			break
		}
		if text, ok := o.(*content.StringValue); ok {
			if text.IsNewline() {
				return true
			}
			if text.IsNonWhitespace() {
				break
			}
		}
	}
	return false
}

func (s *State) outputStreamContainsContent() bool {
	for _, o := range s.flow.output.Values() {
		if isText(o) {
			return true
		}
	}
	return false
}

// inStringEvaluation is true while output is collected for a string value.
func (s *State) inStringEvaluation() bool {
	for i := s.flow.output.Size() - 1; i >= 0; i-- {
		if o, _ := s.flow.output.Get(i); isCommand(o, content.BeginString) {
			return true
		}
	}
	return false
}

// resetOutput clears the output stream. Output held back from the previous
// line becomes the start of the new line.
func (s *State) resetOutput() {
	pending := s.flow.pending
	s.flow.pending = -1
	if pending <= 0 {
		if pending == -1 {
			s.flow.output.Clear()
		}
		return
	}
	for i := 0; i < pending; i++ {
		s.flow.output.Remove(0)
	}
	for _, f := range s.callStack().Elements() {
		if f.FunctionStartInOutputStream > 0 {
			f.FunctionStartInOutputStream -= pending
			if f.FunctionStartInOutputStream < 0 {
				f.FunctionStartInOutputStream = 0
			}
		}
	}
}

// holdBackOutput marks the output from index start on as belonging to the
// next line.
func (s *State) holdBackOutput(start int) {
	if start > s.flow.output.Size() {
		start = s.flow.output.Size()
	}
	s.flow.pending = start
}

// dropPendingOutput discards output held back for the next line.
func (s *State) dropPendingOutput() {
	if s.flow.pending < 0 {
		return
	}
	for s.flow.output.Size() > s.flow.pending {
		s.flow.output.Remove(s.flow.output.Size() - 1)
	}
	s.flow.pending = -1
}

// visibleOutput returns the output of the current line.
func (s *State) visibleOutput() []interface{} {
	vals := s.flow.output.Values()
	if p := s.flow.pending; p >= 0 && p <= len(vals) {
		return vals[:p]
	}
	return vals
}

// CurrentText returns the text of the current line, with runs of inline
// whitespace collapsed.
func (s *State) CurrentText() string {
	return cleanOutputWhitespace(outputText(s.visibleOutput()))
}

// CurrentTags returns the tags of the current line.
func (s *State) CurrentTags() []string {
	var tags []string
	for _, o := range s.visibleOutput() {
		if tag, ok := o.(*content.Tag); ok {
			tags = append(tags, tag.Text)
		}
	}
	return tags
}

// fullText returns the text of the complete output stream, including text
// held back for the next line.
func (s *State) fullText() string {
	return cleanOutputWhitespace(outputText(s.flow.output.Values()))
}

func (s *State) tagCount() int {
	n := 0
	for _, o := range s.flow.output.Values() {
		if _, ok := o.(*content.Tag); ok {
			n++
		}
	}
	return n
}

func outputText(objs []interface{}) string {
	var b strings.Builder
	for _, o := range objs {
		if text, ok := o.(*content.StringValue); ok {
			b.WriteString(text.V)
		}
	}
	return b.String()
}

// cleanOutputWhitespace collapses runs of inline whitespace to a single
// space and removes inline whitespace at the start and end of lines.
func cleanOutputWhitespace(str string) string {
	var b strings.Builder
	b.Grow(len(str))
	whitespaceStart := -1
	startOfLine := 0
	for i := 0; i < len(str); i++ {
		c := str[i]
		inline := c == ' ' || c == '\t'
		if inline && whitespaceStart == -1 {
			whitespaceStart = i
		}
		if !inline {
			if c != '\n' && whitespaceStart > 0 && whitespaceStart != startOfLine {
				b.WriteByte(' ')
			}
			whitespaceStart = -1
		}
		if c == '\n' {
			startOfLine = i + 1
		}
		if !inline {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isText(o interface{}) bool {
	_, ok := o.(*content.StringValue)
	return ok
}

func isCommand(o interface{}, t content.CommandType) bool {
	cmd, ok := o.(*content.ControlCommand)
	return ok && cmd.Type == t
}
