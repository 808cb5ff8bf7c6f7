package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/lexer"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/parser"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

var ignorePos = cmpopts.IgnoreTypes(token.Pos{})

func TestParseSource(tt *testing.T) {
	var testCases = []struct {
		name string
		src  string
		want *ast.Block
	}{
		{
			name: "scenario A",
			src:  `VISIT "http://x/"; SCRAPE span IF @class="c" IF body != "Deselect All"; EXTRACT body; OUTPUT csv --filename "out";`,
			want: &ast.Block{Queries: []*ast.Query{{
				Commands: []ast.Command{
					&ast.Fetch{URLs: []string{"http://x/"}},
					&ast.Graze{Tag: "span", Conditions: []ast.Condition{
						&ast.If{Field: ast.Attr("class"), Op: ast.OpEq, Value: "c"},
						&ast.If{Field: ast.Body, Op: ast.OpNeq, Value: "Deselect All"},
					}},
					&ast.Churn{Fields: []ast.Field{ast.Body}},
					&ast.Deliver{Format: ast.FormatCSV, Filename: "out"},
				},
			}}},
		},
		{
			name: "positions, counts and ancestors",
			src:  `VISIT ("a", 'b'); SELECT 3 DIV NOT IN POSITION = last IN Nav; SCRAPE * IF @Data-Id IN POSITION >= -2;`,
			want: &ast.Block{Queries: []*ast.Query{{
				Commands: []ast.Command{
					&ast.Fetch{URLs: []string{"a", "b"}},
					&ast.Graze{Rebase: true, Tag: "div", Count: 3, Conditions: []ast.Condition{
						&ast.In{Negated: true, Op: ast.OpEq, Last: true},
						&ast.In{Ancestor: "nav"},
					}},
					&ast.Graze{Tag: "*", Conditions: []ast.Condition{
						&ast.If{Field: ast.Attr("data-id"), Op: ast.OpExists},
						&ast.In{Op: ast.OpGte, Index: -2},
					}},
				},
			}}},
		},
		{
			name: "extract pseudo fields and output flags",
			src:  `VISIT "u"; SCRAPE a IF @title LIKE 12; EXTRACT @HREF, tag, html, markdown; OUTPUT YAML --path out --filename "r.yml";`,
			want: &ast.Block{Queries: []*ast.Query{{
				Commands: []ast.Command{
					&ast.Fetch{URLs: []string{"u"}},
					&ast.Graze{Tag: "a", Conditions: []ast.Condition{
						&ast.If{Field: ast.Attr("title"), Op: ast.OpLike, Value: "12"},
					}},
					&ast.Churn{Fields: []ast.Field{
						ast.Attr("href"),
						{Kind: ast.FieldTag, Name: "tag"},
						{Kind: ast.FieldHTML, Name: "html"},
						{Kind: ast.FieldMarkdown, Name: "markdown"},
					}},
					&ast.Deliver{Format: ast.FormatYAML, Filename: "r.yml", Path: "out"},
				},
			}}},
		},
		{
			name: "extract flags",
			src:  `VISIT "u"; SCRAPE table; EXTRACT --table; SCRAPE li; EXTRACT @ID, body --ignore-children;`,
			want: &ast.Block{Queries: []*ast.Query{{
				Commands: []ast.Command{
					&ast.Fetch{URLs: []string{"u"}},
					&ast.Graze{Tag: "table"},
					&ast.Churn{Table: true},
					&ast.Graze{Tag: "li"},
					&ast.Churn{Fields: []ast.Field{ast.Attr("id"), ast.Body}, IgnoreChildren: true},
				},
			}}},
		},
		{
			name: "empty source",
			src:  "// nothing here\n",
			want: &ast.Block{},
		},
	}

	for _, tc := range testCases {
		tt.Run(tc.name, func(tt *testing.T) {
			got, err := parser.ParseSource(tc.src)
			if err != nil {
				tt.Fatalf("ParseSource(%q) error: %v", tc.src, err)
			}
			if diff := cmp.Diff(tc.want, got, ignorePos); diff != "" {
				tt.Fatalf("case failed src=%q\n-want\n+got\ndiff:\n%s", tc.src, diff)
			}
		})
	}
}

func TestParseBlockSplitting(tt *testing.T) {
	var testCases = []struct {
		name   string
		src    string
		labels []string
		sizes  []int
	}{
		{
			name:   "structural split at VISIT after other commands",
			src:    `VISIT "a"; VISIT "b"; SCRAPE p; EXTRACT body; VISIT "c"; SELECT div; EXTRACT @id;`,
			labels: []string{"", ""},
			sizes:  []int{4, 3},
		},
		{
			name:   "SELECT does not open a query",
			src:    `VISIT "a"; SCRAPE p; SELECT div; EXTRACT @id;`,
			labels: []string{""},
			sizes:  []int{4},
		},
		{
			name: "markers",
			src: `VISIT "pre"; EXTRACT body;
[first]
VISIT "a"; EXTRACT body;
VISIT "b"; EXTRACT body;
[empty]
[ second ]
VISIT "c";`,
			labels: []string{"", "first", "second"},
			sizes:  []int{2, 4, 1},
		},
	}

	for _, tc := range testCases {
		tt.Run(tc.name, func(tt *testing.T) {
			block, err := parser.ParseSource(tc.src)
			require.NoError(tt, err)
			var labels []string
			var sizes []int
			for _, q := range block.Queries {
				labels = append(labels, q.Label)
				sizes = append(sizes, len(q.Commands))
			}
			assert.Equal(tt, tc.labels, labels)
			assert.Equal(tt, tc.sizes, sizes)
		})
	}
}

func TestParseErrors(tt *testing.T) {
	var testCases = []struct {
		src    string
		kind   errs.Kind
		line   int
		column int
	}{
		{`VISIT ;`, errs.KindParse, 1, 7},
		{`VISIT ();`, errs.KindParse, 1, 8},
		{`VISIT "a"`, errs.KindParse, 1, 10},
		{`select p;`, errs.KindParse, 1, 1},
		{`SCRAPE ;`, errs.KindParse, 1, 8},
		{`SCRAPE 0 p;`, errs.KindParse, 1, 8},
		{`SCRAPE p IF @class = ;`, errs.KindParse, 1, 22},
		{`SCRAPE a IF tag = "x";`, errs.KindParse, 1, 13},
		{`SCRAPE p IF @a < "3";`, errs.KindCondition, 1, 16},
		{`SCRAPE a IN POSITION = "x";`, errs.KindCondition, 1, 24},
		{`SCRAPE a IN POSITION = first;`, errs.KindCondition, 1, 24},
		{`SCRAPE a IN POSITION LIKE 1;`, errs.KindCondition, 1, 22},
		{`SCRAPE a IN POSITION = 1.5;`, errs.KindCondition, 1, 24},
		{`SCRAPE 1.5 a;`, errs.KindParse, 1, 8},
		{`SCRAPE a IN POSITION 1;`, errs.KindParse, 1, 22},
		{`SCRAPE a NOT body;`, errs.KindParse, 1, 14},
		{`EXTRACT @a @b;`, errs.KindParse, 1, 12},
		{`EXTRACT href;`, errs.KindParse, 1, 9},
		{`EXTRACT @tag, tag;`, errs.KindParse, 1, 15},
		{`EXTRACT body, body;`, errs.KindParse, 1, 15},
		{`EXTRACT @href, @HREF;`, errs.KindParse, 1, 16},
		{`EXTRACT body,;`, errs.KindParse, 1, 14},
		{`EXTRACT body, --table;`, errs.KindParse, 1, 15},
		{`EXTRACT body --bogus;`, errs.KindParse, 1, 14},
		{`EXTRACT body --table;`, errs.KindParse, 1, 14},
		{`EXTRACT --ignore-children;`, errs.KindParse, 1, 9},
		{`EXTRACT --table --table;`, errs.KindParse, 1, 17},
		{`EXTRACT --table "yes";`, errs.KindParse, 1, 17},
		{`OUTPUT csv --table;`, errs.KindParse, 1, 12},
		{`OUTPUT xml;`, errs.KindParse, 1, 8},
		{`OUTPUT csv --name "x";`, errs.KindParse, 1, 12},
		{`OUTPUT csv --path "a" --path "b";`, errs.KindParse, 1, 23},
		{`OUTPUT csv --filename;`, errs.KindParse, 1, 22},
		{"VISIT \"u\";\nEXTRACT body\nOUTPUT csv;", errs.KindParse, 3, 1},
	}

	for _, tc := range testCases {
		tt.Run(tc.src, func(tt *testing.T) {
			_, err := parser.ParseSource(tc.src)
			require.Error(tt, err)
			assert.Equal(tt, tc.kind, errs.KindOf(err), "error: %v", err)
			pos, ok := errs.PositionOf(err)
			require.True(tt, ok)
			assert.Equal(tt, tc.line, pos.Line, "error: %v", err)
			assert.Equal(tt, tc.column, pos.Column, "error: %v", err)
		})
	}
}

func TestParseErrorDetail(t *testing.T) {
	_, err := parser.ParseSource(`OUTPUT csv --filename;`)
	var pe *errs.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "value for --filename", pe.Expected)
	assert.Equal(t, token.SEMICOLON, pe.Actual.Kind)
}

func TestExtractFlagErrorDetail(t *testing.T) {
	_, err := parser.ParseSource(`EXTRACT body --bogus;`)
	var pe *errs.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "flag --table or --ignore-children", pe.Expected)

	_, err = parser.ParseSource(`EXTRACT @tag, tag;`)
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Expected, "tag is already extracted")
}

func TestCanonicalRoundTrip(tt *testing.T) {
	corpus := []string{
		`VISIT "http://x/"; SCRAPE span IF @class="c" IF body != "Deselect All"; EXTRACT body; OUTPUT csv --filename "out";`,
		`VISIT "http://x/"; SCRAPE a IN POSITION = 0; EXTRACT @href; OUTPUT json --filename "links";`,
		`VISIT ( "a" ); VISIT ("b", "c"); SELECT 2 * NOT IF @hidden IN POSITION != last; SCRAPE li NOT IN footer;`,
		`VISIT 'say "hi"'; SCRAPE p IF @title == 'it"s' IF body LIKE 42; EXTRACT tag, html, markdown, @data-x;`,
		`VISIT "u"; EXTRACT body; OUTPUT Yaml --path "o" --filename f;`,
		"[one]\nVISIT \"a\"; EXTRACT body;\n[two]\nVISIT \"b\"; SCRAPE p IN POSITION <= -1; EXTRACT body;",
		"VISIT \"a\"; EXTRACT body;\nVISIT \"b\"; EXTRACT body;",
		`VISIT "u"; SCRAPE table; EXTRACT --table --ignore-children;`,
		`VISIT "u"; SCRAPE li; EXTRACT @id, body --ignore-children;`,
	}

	for _, src := range corpus {
		tt.Run(src, func(tt *testing.T) {
			first, err := parser.ParseSource(src)
			require.NoError(tt, err)

			canonical := first.String()
			second, err := parser.ParseSource(canonical)
			require.NoError(tt, err, "canonical source:\n%s", canonical)

			if diff := cmp.Diff(first, second, ignorePos); diff != "" {
				tt.Fatalf("re-parse of %q differs\n-first\n+second\ndiff:\n%s", canonical, diff)
			}
			assert.Equal(tt, canonical, second.String())
		})
	}
}

func TestParserAdvancesPastSemicolon(t *testing.T) {
	toks, err := lexer.Tokenize(`VISIT "a"; SCRAPE p;`)
	require.NoError(t, err)

	c := parser.NewCursor(toks)
	cmd, err := parser.VisitParser{}.Parse(c)
	require.NoError(t, err)
	assert.Equal(t, ast.KindFetch, cmd.Kind())
	assert.Equal(t, token.SCRAPE, c.Peek().Kind)
	assert.Equal(t, 3, c.Offset())
}

type stubParser struct{ cmd ast.Command }

func (p stubParser) Parse(c *parser.Cursor) (ast.Command, error) {
	for c.Next().Kind != token.SEMICOLON {
	}
	return p.cmd, nil
}

func TestRegistryOverride(t *testing.T) {
	reg := parser.NewRegistry()
	want := &ast.Churn{Fields: []ast.Field{ast.Body}}
	reg.Register(token.EXTRACT, stubParser{want})

	toks, err := lexer.Tokenize(`VISIT "a"; EXTRACT anything goes here;`)
	require.NoError(t, err)
	block, err := reg.ParseBlock(toks)
	require.NoError(t, err)
	require.Len(t, block.Queries, 1)
	assert.Same(t, want, block.Queries[0].Commands[1])

	_, ok := reg.Lookup(token.IF)
	assert.False(t, ok)
}
