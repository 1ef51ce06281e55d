package player

import (
	"strconv"
	"sync"

	"github.com/npillmayer/goink"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Token types of player input.
const (
	tokNumber = iota + 1
	tokFloat
	tokString
	tokCommand
	tokWord
)

var tokenNames = map[int]string{
	tokNumber:  "number",
	tokFloat:   "float",
	tokString:  "string",
	tokCommand: "command",
	tokWord:    "word",
}

// token is a scanned piece of player input.
type token struct {
	Type   int
	Lexeme string
	Value  interface{} // int, float64 or string
	Column int
}

func (t token) String() string {
	return tokenNames[t.Type] + "(" + t.Lexeme + ")"
}

var lexer struct {
	once sync.Once
	lx   *lexmachine.Lexer
	err  error
}

// commandLexer returns the lexer for player input, compiling its DFA on
// first use.
func commandLexer() (*lexmachine.Lexer, error) {
	lexer.once.Do(func() {
		lx := lexmachine.NewLexer()
		lx.Add([]byte(`( |\t|\r|\n)+`), skip)
		lx.Add([]byte(`:[a-z]+`), makeToken(tokCommand))
		lx.Add([]byte(`\-?[0-9]+`), makeToken(tokNumber))
		lx.Add([]byte(`\-?[0-9]+\.[0-9]+`), makeToken(tokFloat))
		lx.Add([]byte(`"[^"]*"`), makeToken(tokString))
		lx.Add([]byte(`[^ \t\r\n"]+`), makeToken(tokWord))
		if err := lx.Compile(); err != nil {
			tracer().Errorf("error compiling DFA: %v", err)
			lexer.err = err
			return
		}
		lexer.lx = lx
	})
	return lexer.lx, lexer.err
}

// scan splits a line of player input into tokens.
func scan(line string) ([]token, error) {
	lx, err := commandLexer()
	if err != nil {
		return nil, err
	}
	sc, err := lx.Scanner([]byte(line))
	if err != nil {
		return nil, err
	}
	var toks []token
	for {
		tok, err, eof := sc.Next()
		if eof {
			break
		}
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				return toks, goink.Errorf(goink.MalformedDocument, "cannot read input at column %d", ui.FailTC+1)
			}
			return toks, err
		}
		t := tok.(*lexmachine.Token)
		toks = append(toks, token{
			Type:   t.Type,
			Lexeme: string(t.Lexeme),
			Value:  t.Value,
			Column: t.StartColumn,
		})
	}
	tracer().Debugf("scanned input: %v", toks)
	return toks, nil
}

// skip is an action which ignores the scanned match.
func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// makeToken is an action which wraps a scanned match into a token with a
// Go value.
func makeToken(typ int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		lexeme := string(m.Bytes)
		var value interface{} = lexeme
		switch typ {
		case tokNumber:
			n, err := strconv.Atoi(lexeme)
			if err != nil {
				return nil, err
			}
			value = n
		case tokFloat:
			f, err := strconv.ParseFloat(lexeme, 64)
			if err != nil {
				return nil, err
			}
			value = f
		case tokString:
			value = lexeme[1 : len(lexeme)-1]
		case tokCommand:
			value = lexeme[1:]
		}
		return s.Token(typ, value, m), nil
	}
}
