//go:build cgo

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symdex/internal/errors"
	"symdex/internal/indexer"
	"symdex/internal/protocol"
	"symdex/internal/symtab"
	"symdex/internal/syntax"
	"symdex/internal/testutil"
)

func realIndexer(t *testing.T, lang syntax.Language) *indexer.Indexer {
	t.Helper()
	ix, err := indexer.New(indexer.Options{Language: lang, Encoding: "utf-8"})
	require.NoError(t, err)
	return ix
}

func TestServer_PackageScenarioOverTCP(t *testing.T) {
	_, addr := startServer(t, testConfig(), realIndexer(t, syntax.LangJava))

	resp := testutil.Exchange(t, addr, testutil.Frame([]byte("package p;\nclass A { void f() { g(); } }")))
	assert.NotContains(t, string(resp), "\n")

	table, err := protocol.DecodeResponse(resp)
	require.NoError(t, err)

	pkg, ok := table.Package()
	require.True(t, ok)
	assert.Equal(t, "p", pkg)

	a, ok := table.Entry(symtab.Types, "A")
	require.True(t, ok)
	require.Len(t, a.Declarations, 1)
	assert.Equal(t, 1, a.Declarations[0].Start().Line)

	f, ok := table.Entry(symtab.Callables, "f")
	require.True(t, ok)
	require.Len(t, f.Declarations, 1)
	end, hasEnd := f.Declarations[0].End()
	assert.True(t, hasEnd)
	assert.Equal(t, symtab.Point{Line: 1, Col: 21}, end)

	g, ok := table.Entry(symtab.Callables, "g")
	require.True(t, ok)
	assert.Empty(t, g.Declarations)
	require.Len(t, g.Uses, 1)
	assert.Equal(t, 1, g.Uses[0].Start().Line)
}

func TestServer_InvalidSourceGetsErrorPayload(t *testing.T) {
	_, addr := startServer(t, testConfig(), realIndexer(t, syntax.LangJava))

	broken := testutil.LoadFixture(t, "java", "Broken.java").Source
	_, err := protocol.DecodeResponse(testutil.Exchange(t, addr, testutil.Frame(broken)))
	assert.Equal(t, errors.ParseError, errors.CodeOf(err))

	_, err = protocol.DecodeResponse(testutil.Exchange(t, addr, testutil.Frame([]byte("class A {}\xfe"))))
	assert.Equal(t, errors.EncodingError, errors.CodeOf(err))
}

func TestServer_PythonFixture(t *testing.T) {
	_, addr := startServer(t, testConfig(), realIndexer(t, syntax.LangPython))

	src := testutil.LoadFixture(t, "python", "counter.py").Source
	table, err := protocol.DecodeResponse(testutil.Exchange(t, addr, testutil.Frame(src)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Counter"}, table.Names(symtab.Types))
	assert.Contains(t, table.Names(symtab.Callables), "bump")
}

func TestServer_RubyFixture(t *testing.T) {
	_, addr := startServer(t, testConfig(), realIndexer(t, syntax.LangRuby))

	src := testutil.LoadFixture(t, "ruby", "inventory.rb").Source
	table, err := protocol.DecodeResponse(testutil.Exchange(t, addr, testutil.Frame(src)))
	require.NoError(t, err)

	pkg, ok := table.Package()
	require.True(t, ok)
	assert.Equal(t, "Shop", pkg)
	assert.Equal(t, []string{"json", "store"}, table.Names(symtab.Imports))
	assert.Contains(t, table.Names(symtab.Callables), "initialize")
}
