package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Classification
	}{
		{"/", Classification{}},
		{"/katalog", Classification{}},
		{"/siswa", Classification{IsProtected: true, IsStudentOnly: true}},
		{"/siswa/katalog", Classification{IsProtected: true, IsStudentOnly: true}},
		{"/admin", Classification{IsProtected: true, IsAdminOnly: true}},
		{"/admin/buku/12", Classification{IsProtected: true, IsAdminOnly: true}},
		{"/login", Classification{IsGuestOnly: true}},
		{"/register", Classification{IsGuestOnly: true}},
		{"/Admin", Classification{}},
		{"/public/siswa", Classification{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestClassify_PolicySetsAreDisjoint(t *testing.T) {
	for _, rule := range routePolicy {
		got := Classify(rule.prefix)
		assert.False(t, got.IsGuestOnly && got.IsProtected, rule.prefix)
		assert.False(t, got.IsAdminOnly && got.IsStudentOnly, rule.prefix)
	}
}

func TestExcluded(t *testing.T) {
	excluded := []string{
		"/api",
		"/api/auth/me",
		"/health/live",
		"/static/app.css",
		"/assets/logo.svg",
		"/_next/static/chunk.js",
		"/favicon.ico",
		"/katalog/cover.png",
		"/robots.txt",
	}
	for _, path := range excluded {
		assert.True(t, Excluded(path), path)
	}

	intercepted := []string{
		"/", "/siswa", "/admin/buku", "/login", "/apiary", "/healthy",
		"/admin/laporan.csv", "/siswa/kartu.pdf", "/siswa/cover.png",
	}
	for _, path := range intercepted {
		assert.False(t, Excluded(path), path)
	}
}

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"/", "/"},
		{"/admin", "/admin"},
		{"/%61dmin", "/admin"},
		{"/%2Fadmin", "/admin"},
		{"//admin", "/admin"},
		{"///siswa//katalog", "/siswa/katalog"},
		{"/siswa/../admin", "/admin"},
		{"/siswa/%2e%2e/admin", "/admin"},
		{"/./admin/./buku", "/admin/buku"},
		{"/../../admin", "/admin"},
		{"/katalog/", "/katalog/"},
		{"admin", "/admin"},
		{"/buku%20baru", "/buku baru"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := CanonicalPath(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalPath_RejectsBadEscapes(t *testing.T) {
	for _, raw := range []string{"/%zz", "/admin%", "/%6"} {
		_, err := CanonicalPath(raw)
		assert.Error(t, err, raw)
	}
}

func TestCanonicalPath_SpellingsClassifyAlike(t *testing.T) {
	for _, raw := range []string{"/%61dmin/buku", "//admin/buku", "/siswa/../admin/buku", "/api/../admin/buku"} {
		canonical, err := CanonicalPath(raw)
		require.NoError(t, err)
		assert.False(t, Excluded(canonical), raw)
		assert.Equal(t, Classify("/admin/buku"), Classify(canonical), raw)
	}
}

func TestEscapedPath(t *testing.T) {
	assert.Equal(t, "/buku%20baru", EscapedPath("/buku baru"))
	assert.Equal(t, "/admin", EscapedPath("/admin"))
}
