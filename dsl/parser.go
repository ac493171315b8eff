// Package dsl 解析 quire 任务文件：来源列表、排版参数、元数据、后处理步骤与输出路径。
package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	jobLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	jobParser = participle.MustBuild[Job](
		participle.Lexer(jobLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
		participle.UseLookahead(2),
	)
)

// Job is the root AST node of a job file.
type Job struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'job' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Section is one top-level statement inside a job.
type Section struct {
	Layout   *LayoutSection   `parser:"  @@"`
	Meta     *MetaSection     `parser:"| @@"`
	Sources  *SourcesSection  `parser:"| @@"`
	Compress *CompressStep    `parser:"| @@"`
	Extract  *ExtractStep     `parser:"| @@"`
	Output   *OutputStatement `parser:"| @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Layout != nil:
		return "layout"
	case s.Meta != nil:
		return "meta"
	case s.Sources != nil:
		return "sources"
	case s.Compress != nil:
		return "compress"
	case s.Extract != nil:
		return "extract"
	case s.Output != nil:
		return "output"
	default:
		return "unknown"
	}
}

// LayoutSection overrides config keys.
type LayoutSection struct {
	Block *Block `parser:"'layout' @@"`
}

// MetaSection sets document metadata.
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// SourcesSection lists the inputs to merge.
type SourcesSection struct {
	Sources []*SourceDecl `parser:"'sources' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// SourceDecl declares one input: `table "a.xlsx" position 2`.
type SourceDecl struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Kind     string         `parser:"@( 'table' | 'document' | 'image' )"`
	Path     StringLiteral  `parser:"@String"`
	Position *int           `parser:"( 'position' @Number )?"`
}

// CompressStep rasterizes the assembled document: `compress dpi 120`.
type CompressStep struct {
	Pos lexer.Position `parser:"" json:"-"`
	DPI *int           `parser:"'compress' ( 'dpi' @Number )?"`
}

// ExtractStep keeps an inclusive page range: `extract 2 4`.
type ExtractStep struct {
	Pos  lexer.Position `parser:"" json:"-"`
	From int            `parser:"'extract' @Number"`
	To   int            `parser:"@Number"`
}

// OutputStatement names the PDF to write.
type OutputStatement struct {
	Path StringLiteral `parser:"'output' @String"`
}

// Block is a delimited list of assignments.
type Block struct {
	Assignments []*Assignment `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Assignment uses colon syntax (key: value ...).
type Assignment struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Key    string         `parser:"@Ident"`
	Values []*Value       `parser:"':' @@+"`
}

// Text joins the assignment's values with single spaces, so `margin: 10mm 20mm` reads as "10mm 20mm".
func (a *Assignment) Text() string {
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = v.Text()
	}
	return strings.Join(parts, " ")
}

// Value is a single literal.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Text returns the literal's unquoted text.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a job file from an io.Reader. filename only labels positions in errors.
func Parse(filename string, r io.Reader) (*Job, error) {
	return jobParser.Parse(filename, r)
}

// ParseString parses job content from a string.
func ParseString(input string) (*Job, error) {
	return jobParser.ParseString("", input)
}
