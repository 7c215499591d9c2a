package fixture

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"

	"github.com/roach88/ballotfix/internal/election"
)

//go:embed schema.cue
var schemaSource string

// cueFixture is the decode target for a schema-checked CUE value.
type cueFixture struct {
	N  map[string]int64                       `json:"n"`
	T  map[string]map[string]map[string]int64 `json:"t"`
	RO map[string]string                      `json:"ro"`
}

func decodeCUE(data []byte, name string) (*election.Election, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Fixture"))

	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(ErrCodeParse, name, err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeSchema, name, err)
	}

	var raw cueFixture
	if err := unified.Decode(&raw); err != nil {
		return nil, cueLoadError(ErrCodeSchema, name, err)
	}

	e := election.New()
	if raw.N != nil {
		e.Ballots = raw.N
	}
	for cid, byCollection := range raw.T {
		if byCollection == nil {
			byCollection = make(map[string]map[string]int64)
		}
		e.Tallies[cid] = byCollection
	}
	if raw.RO != nil {
		e.Reported = raw.RO
	}

	// Doc comments live on the data value, not the schema.
	if c := value.LookupPath(cue.MakePath(cue.Str(election.KeyComment))); c.Exists() {
		if text, err := c.String(); err == nil {
			e.AddComment(firstPresentKey(value), text)
		}
	}
	for _, key := range election.TopLevelKeys {
		field := value.LookupPath(cue.ParsePath(key))
		if !field.Exists() {
			continue
		}
		for _, group := range field.Doc() {
			for _, line := range strings.Split(strings.TrimSpace(group.Text()), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					e.AddComment(key, line)
				}
			}
		}
	}

	return e, nil
}

// firstPresentKey returns the first top-level key present in v, so a lone
// "__comment" field anchors like its JSON counterpart.
func firstPresentKey(v cue.Value) string {
	for _, key := range election.TopLevelKeys {
		if v.LookupPath(cue.ParsePath(key)).Exists() {
			return key
		}
	}
	return ""
}

func cueLoadError(code, name string, err error) error {
	loadErr := &LoadError{Code: code, Message: cueerrors.Details(err, nil), Path: name}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		loadErr.Message = errs[0].Error()
		if pos := errs[0].Position(); pos.IsValid() {
			loadErr.Line = pos.Line()
			loadErr.Column = pos.Column()
		}
	}
	loadErr.Message = strings.TrimSpace(loadErr.Message)
	return loadErr
}

func encodeCUE(e *election.Election) ([]byte, error) {
	ctx := cuecontext.New()

	sections := map[string]any{
		election.KeyBallots:  e.Ballots,
		election.KeyTallies:  e.Tallies,
		election.KeyReported: e.Reported,
	}

	file := &ast.File{}
	for _, key := range election.TopLevelKeys {
		v := ctx.Encode(sections[key])
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		expr, ok := v.Syntax().(ast.Expr)
		if !ok {
			return nil, fmt.Errorf("encode %s: unexpected syntax %T", key, v.Syntax())
		}
		field := &ast.Field{Label: ast.NewIdent(key), Value: expr}
		if texts := e.CommentsBefore(key); len(texts) > 0 {
			group := &ast.CommentGroup{Doc: true}
			for _, text := range texts {
				group.List = append(group.List, &ast.Comment{Text: "// " + strings.ReplaceAll(text, "\n", " ")})
			}
			ast.AddComment(field, group)
		}
		file.Decls = append(file.Decls, field)
	}

	out, err := format.Node(file)
	if err != nil {
		return nil, fmt.Errorf("format cue: %w", err)
	}
	return out, nil
}
