package web

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTemplatesRender(t *testing.T) {
	tmpl, err := Templates("")
	require.NoError(t, err)

	for _, name := range []string{"login.html", "home.html", "about.html", "users.html", "chat.html", "404.html", "500.html"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := tmpl.ExecuteTemplate(&buf, name, map[string]interface{}{"title": "Test"})
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "<title>Test · AdminKit</title>")
		})
	}
}

func TestLoginTemplateEscapesMessage(t *testing.T) {
	tmpl, err := Templates("")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "login.html", map[string]interface{}{
		"title":   "Login",
		"message": "<b>bad</b>",
	}))
	assert.Contains(t, buf.String(), "&lt;b&gt;bad&lt;/b&gt;")
}

func TestTemplatesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "only.html"), []byte(`{{upper .}}`), 0o600))

	tmpl, err := Templates(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "only.html", "hi"))
	assert.Equal(t, "HI", buf.String())

	_, err = Templates(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestStaticAssets(t *testing.T) {
	assets, err := Static("")
	require.NoError(t, err)

	data, err := fs.ReadFile(assets, "css/app.css")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestDateFuncs(t *testing.T) {
	datePtr := Funcs["datePtr"].(func(*time.Time) string)
	assert.Equal(t, "never", datePtr(nil))

	date := Funcs["date"].(func(time.Time) string)
	assert.Equal(t, "", date(time.Time{}))
}
