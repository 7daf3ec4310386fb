package bvh

import (
	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_HIERARCHY = iota
	TOKEN_ROOT
	TOKEN_JOINT
	TOKEN_END
	TOKEN_SITE
	TOKEN_OFFSET
	TOKEN_CHANNELS
	TOKEN_MOTION
	TOKEN_FRAMES
	TOKEN_FRAME_TIME
	TOKEN_OPEN
	TOKEN_CLOSE
	TOKEN_NUMBER
	TOKEN_NAME
)

var tokenNames = map[int]string{
	TOKEN_HIERARCHY:  "HIERARCHY",
	TOKEN_ROOT:       "ROOT",
	TOKEN_JOINT:      "JOINT",
	TOKEN_END:        "End",
	TOKEN_SITE:       "Site",
	TOKEN_OFFSET:     "OFFSET",
	TOKEN_CHANNELS:   "CHANNELS",
	TOKEN_MOTION:     "MOTION",
	TOKEN_FRAMES:     "Frames:",
	TOKEN_FRAME_TIME: "Frame Time:",
	TOKEN_OPEN:       "{",
	TOKEN_CLOSE:      "}",
	TOKEN_NUMBER:     "number",
	TOKEN_NAME:       "name",
}

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	// Keywords first: on equal-length matches the earlier pattern wins.
	lexer.Add([]byte(`HIERARCHY`), getToken(TOKEN_HIERARCHY))
	lexer.Add([]byte(`ROOT`), getToken(TOKEN_ROOT))
	lexer.Add([]byte(`JOINT`), getToken(TOKEN_JOINT))
	lexer.Add([]byte(`End`), getToken(TOKEN_END))
	lexer.Add([]byte(`Site`), getToken(TOKEN_SITE))
	lexer.Add([]byte(`OFFSET`), getToken(TOKEN_OFFSET))
	lexer.Add([]byte(`CHANNELS`), getToken(TOKEN_CHANNELS))
	lexer.Add([]byte(`MOTION`), getToken(TOKEN_MOTION))
	lexer.Add([]byte(`Frames:`), getToken(TOKEN_FRAMES))
	lexer.Add([]byte(`Frame\s+Time:`), getToken(TOKEN_FRAME_TIME))
	lexer.Add([]byte(`\{`), getToken(TOKEN_OPEN))
	lexer.Add([]byte(`\}`), getToken(TOKEN_CLOSE))
	lexer.Add([]byte(`[\+\-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_:\.\-]*`), getToken(TOKEN_NAME))
	lexer.Add([]byte(`\s+`), skip)

	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

func tokenize(text []byte) ([]*lexmachine.Token, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	toks := make([]*lexmachine.Token, 0, len(text)/4)
	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to scan token")
		}
		toks = append(toks, itok.(*lexmachine.Token))
	}
	return toks, nil
}
