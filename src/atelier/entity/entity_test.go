package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Category
	}{
		{name: "routine", doc: "MyRoutine.mac", want: CategoryRoutine},
		{name: "intermediate routine", doc: "MyRoutine.1.int", want: CategoryRoutine},
		{name: "include", doc: "Macros.INC", want: CategoryRoutine},
		{name: "class", doc: "MyClass.cls", want: CategoryClass},
		{name: "system class", doc: "%SomeSystem.cls", want: CategoryClass},
		{name: "web application file", doc: "/csp/user/menu.csp", want: CategoryCSP},
		{name: "web application file without extension", doc: "/csp/user/readme", want: CategoryCSP},
		{name: "other", doc: "Lookup.LUT", want: CategoryOther},
		{name: "no extension", doc: "Package", want: CategoryOther},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.doc))
		})
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryClass, ParseCategory("cls"))
	assert.Equal(t, CategoryRoutine, ParseCategory("RTN"))
	assert.Equal(t, CategoryAll, ParseCategory("*"))
	assert.Equal(t, CategoryOther, ParseCategory("unknown"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "cls", Extension("A.B.Cls1.cls"))
	assert.Equal(t, "", Extension("A"))
	assert.Equal(t, "", Extension("A."))
	assert.Equal(t, "", Extension("/csp.v2/dir"))
	assert.Equal(t, "csp", Extension("/csp/user/Menu.CSP"))
}

func TestIsSystem(t *testing.T) {
	assert.True(t, IsSystem("%Library.String.cls"))
	assert.False(t, IsSystem("User.Person.cls"))
}

func TestParseDocumentIdentity(t *testing.T) {
	tests := []struct {
		input   string
		want    DocumentIdentity
		wantErr bool
	}{
		{input: "Package.Class.cls", want: DocumentIdentity{Name: "Package.Class.cls"}},
		{input: "Routine.mac:Label", want: DocumentIdentity{Name: "Routine.mac", Symbol: "Label"}},
		{input: "Name.cls:Method+3", want: DocumentIdentity{Name: "Name.cls", Symbol: "Method", Offset: 3}},
		{input: "Name.cls:", want: DocumentIdentity{Name: "Name.cls"}},
		{input: ":Method", wantErr: true},
		{input: "Name.cls:Method+x", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDocumentIdentity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentIdentityString(t *testing.T) {
	for _, s := range []string{"Package.Class.cls", "Routine.mac:Label", "Name.cls:Method+3"} {
		id, err := ParseDocumentIdentity(s)
		require.NoError(t, err)
		assert.Equal(t, s, id.String())
	}
	assert.Equal(t, CategoryRoutine, DocumentIdentity{Name: "R.mac"}.Category())
}

func TestSnapshotText(t *testing.T) {
	text := "Class A.B\n{\n\n}"
	snapshot := DocumentSnapshot{Content: SplitLines(text)}
	assert.Equal(t, text, snapshot.Text())
	assert.Equal(t, []string{"a", "b", "c", ""}, SplitLines("a\r\nb\rc\n"))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-05 10:11:12.345")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 11, 12, 345000000, time.UTC), ts)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestConnectionSpec(t *testing.T) {
	spec := ConnectionSpec{Host: "Dev.Example.com", Port: 443, Namespace: "user", HTTPS: true, PathPrefix: "iris/"}
	assert.Equal(t, SessionKey{Host: "dev.example.com", Port: 443, Namespace: "USER"}, spec.SessionKey())
	assert.Equal(t, "dev.example.com:443[USER]", spec.SessionKey().String())
	assert.Equal(t, "https://Dev.Example.com:443/iris", spec.BaseURL())

	spec = ConnectionSpec{Host: "localhost", Port: DefaultPort}
	assert.Equal(t, "http://localhost:52773", spec.BaseURL())
}

func TestCompileResultSucceeded(t *testing.T) {
	assert.True(t, CompileResult{Console: []string{"WARNING: deprecated"}}.Succeeded())
	assert.False(t, CompileResult{Errors: []CompileError{{Message: "syntax error"}}}.Succeeded())
}

func TestQueryRowString(t *testing.T) {
	row := QueryRow{"Name": "A.cls", "Type": float64(4)}
	assert.Equal(t, "A.cls", row.String("Name"))
	assert.Equal(t, "", row.String("Type"))
	assert.Equal(t, "", row.String("Missing"))
}

func TestSyncStateString(t *testing.T) {
	assert.Equal(t, "importing", SyncStateImporting.String())
	assert.Equal(t, "unknown", SyncState(42).String())
}
