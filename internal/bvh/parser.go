// Package bvh reads Biovision Hierarchy motion capture files into a skeleton.
package bvh

import (
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"

	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/skeleton"
)

// EndSiteSuffix is appended to the parent name for End Site joints.
const EndSiteSuffix = "_End"

// MaxFrames bounds the Frames: header before any slot is allocated.
const MaxFrames = 1 << 24

var ErrSyntax = errors.New("bvh syntax error")

type parser struct {
	toks []*lexmachine.Token
	pos  int
	sk   *skeleton.Skeleton
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*skeleton.Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open %s", path)
	}
	defer f.Close()

	sk, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return sk, nil
}

// Parse reads a whole BVH document. The returned skeleton has its root set,
// motion loaded and transform slots sized to the frame count.
func Parse(r io.Reader) (*skeleton.Skeleton, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read input")
	}
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, sk: skeleton.New()}
	if err := p.document(); err != nil {
		return nil, err
	}
	return p.sk, nil
}

func (p *parser) document() error {
	if _, err := p.expect(TOKEN_HIERARCHY); err != nil {
		return err
	}
	if _, err := p.expect(TOKEN_ROOT); err != nil {
		return err
	}
	name, err := p.expect(TOKEN_NAME)
	if err != nil {
		return err
	}
	root, err := p.joint(string(name.Lexeme), skeleton.NoParent)
	if err != nil {
		return err
	}
	if err := p.sk.SetRootJoint(root); err != nil {
		return err
	}

	if tok := p.peek(); tok != nil && tok.Type == TOKEN_ROOT {
		return errors.Wrapf(skeleton.ErrStructure, "line %d: second ROOT", tok.StartLine)
	}
	return p.motion()
}

// joint parses the brace block that follows a ROOT or JOINT name.
func (p *parser) joint(name string, parent int) (int, error) {
	if _, err := p.expect(TOKEN_OPEN); err != nil {
		return 0, err
	}
	offset, err := p.offset()
	if err != nil {
		return 0, err
	}

	var channels []skeleton.Channel
	if tok := p.peek(); tok != nil && tok.Type == TOKEN_CHANNELS {
		p.pos++
		if channels, err = p.channels(); err != nil {
			return 0, err
		}
	}

	idx, err := p.add(name, offset, parent, channels...)
	if err != nil {
		return 0, err
	}

	for {
		tok, err := p.next()
		if err != nil {
			return 0, err
		}
		switch tok.Type {
		case TOKEN_JOINT:
			child, err := p.expect(TOKEN_NAME)
			if err != nil {
				return 0, err
			}
			if _, err := p.joint(string(child.Lexeme), idx); err != nil {
				return 0, err
			}
		case TOKEN_END:
			if err := p.endSite(name, idx); err != nil {
				return 0, err
			}
		case TOKEN_CLOSE:
			return idx, nil
		default:
			return 0, p.unexpected(tok, "JOINT, End Site or }")
		}
	}
}

func (p *parser) endSite(parentName string, parent int) error {
	if _, err := p.expect(TOKEN_SITE); err != nil {
		return err
	}
	if _, err := p.expect(TOKEN_OPEN); err != nil {
		return err
	}
	offset, err := p.offset()
	if err != nil {
		return err
	}
	if _, err := p.expect(TOKEN_CLOSE); err != nil {
		return err
	}
	_, err = p.add(parentName+EndSiteSuffix, offset, parent)
	return err
}

func (p *parser) add(name string, offset mathutil.Vec3, parent int, channels ...skeleton.Channel) (int, error) {
	j, err := skeleton.NewJoint(name, offset, channels...)
	if err != nil {
		return 0, err
	}
	idx, err := p.sk.AddJoint(j)
	if err != nil {
		return 0, err
	}
	if parent != skeleton.NoParent {
		if err := p.sk.Attach(parent, idx); err != nil {
			return 0, err
		}
	}
	return idx, nil
}

func (p *parser) offset() (mathutil.Vec3, error) {
	var v mathutil.Vec3
	if _, err := p.expect(TOKEN_OFFSET); err != nil {
		return v, err
	}
	for i := range v {
		f, err := p.floatValue()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func (p *parser) channels() ([]skeleton.Channel, error) {
	n, err := p.intValue()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > 6 {
		return nil, errors.Wrapf(ErrSyntax, "line %d: channel count %d", p.toks[p.pos-1].StartLine, n)
	}
	out := make([]skeleton.Channel, n)
	for i := range out {
		tok, err := p.expect(TOKEN_NAME)
		if err != nil {
			return nil, err
		}
		ch, err := skeleton.ParseChannel(string(tok.Lexeme))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", tok.StartLine)
		}
		out[i] = ch
	}
	return out, nil
}

func (p *parser) motion() error {
	if _, err := p.expect(TOKEN_MOTION); err != nil {
		return err
	}
	if _, err := p.expect(TOKEN_FRAMES); err != nil {
		return err
	}
	frames, err := p.intValue()
	if err != nil {
		return err
	}
	if frames < 0 {
		return errors.Wrapf(skeleton.ErrMotionLayout, "negative frame count %d", frames)
	}
	if _, err := p.expect(TOKEN_FRAME_TIME); err != nil {
		return err
	}
	frameTime, err := p.floatValue()
	if err != nil {
		return err
	}

	width := p.sk.NumChannels()
	if frames > MaxFrames {
		return errors.Wrapf(skeleton.ErrMotionLayout, "frame count %d exceeds %d", frames, MaxFrames)
	}
	if remaining := len(p.toks) - p.pos; width > 0 && frames > remaining/width {
		return errors.Wrapf(skeleton.ErrMotionLayout, "%d frames of %d values, only %d values follow",
			frames, width, remaining)
	}
	rows := make([][]float64, frames)
	for i := range rows {
		row := make([]float64, width)
		for c := range row {
			if row[c], err = p.floatValue(); err != nil {
				return errors.Wrapf(err, "frame %d channel %d", i, c)
			}
		}
		rows[i] = row
	}
	if tok := p.peek(); tok != nil {
		return errors.Wrapf(skeleton.ErrMotionLayout, "line %d: data after %d frames", tok.StartLine, frames)
	}

	if err := p.sk.LoadMotion(rows); err != nil {
		return err
	}
	p.sk.SetFrameTime(frameTime)
	return nil
}

func (p *parser) peek() *lexmachine.Token {
	if p.pos >= len(p.toks) {
		return nil
	}
	return p.toks[p.pos]
}

func (p *parser) next() (*lexmachine.Token, error) {
	tok := p.peek()
	if tok == nil {
		return nil, errors.Wrapf(ErrSyntax, "unexpected end of input")
	}
	p.pos++
	return tok, nil
}

func (p *parser) expect(tokenType int) (*lexmachine.Token, error) {
	tok, err := p.next()
	if err != nil {
		return nil, errors.Wrapf(err, "expected %s", tokenNames[tokenType])
	}
	if tok.Type != tokenType {
		return nil, p.unexpected(tok, tokenNames[tokenType])
	}
	return tok, nil
}

func (p *parser) floatValue() (float64, error) {
	tok, err := p.expect(TOKEN_NUMBER)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(string(tok.Lexeme), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "line %d: %v", tok.StartLine, err)
	}
	return f, nil
}

func (p *parser) intValue() (int, error) {
	tok, err := p.expect(TOKEN_NUMBER)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(tok.Lexeme))
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "line %d: %q is not an integer", tok.StartLine, tok.Lexeme)
	}
	return n, nil
}

func (p *parser) unexpected(tok *lexmachine.Token, want string) error {
	return errors.Wrapf(ErrSyntax, "line %d: expected %s, got %q", tok.StartLine, want, tok.Lexeme)
}
