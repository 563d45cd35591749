package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCookieJarMerge(t *testing.T) {
	tests := []struct {
		name     string
		initial  []string
		merge    []string
		expected []Cookie
		header   string
	}{
		{
			name:     "append new cookies",
			merge:    []string{"CSPSESSIONID=abc; path=/; httponly", "CSPWSERVERID=w1"},
			expected: []Cookie{{"CSPSESSIONID", "abc"}, {"CSPWSERVERID", "w1"}},
			header:   "CSPSESSIONID=abc; CSPWSERVERID=w1",
		},
		{
			name:     "replace first cookie",
			initial:  []string{"CSPSESSIONID=abc", "CSPWSERVERID=w1"},
			merge:    []string{"CSPSESSIONID=def"},
			expected: []Cookie{{"CSPSESSIONID", "def"}, {"CSPWSERVERID", "w1"}},
			header:   "CSPSESSIONID=def; CSPWSERVERID=w1",
		},
		{
			name:     "last value wins within one response",
			merge:    []string{"a=1", "a=2"},
			expected: []Cookie{{"a", "2"}},
			header:   "a=2",
		},
		{
			name:     "invalid lines ignored",
			merge:    []string{"", "=novalue", "ok=1"},
			expected: []Cookie{{"ok", "1"}},
			header:   "ok=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := &CookieJar{}
			jar.Merge(tt.initial)
			jar.Merge(tt.merge)
			assert.Equal(t, tt.expected, jar.Cookies())
			assert.Equal(t, tt.header, jar.Header())
		})
	}
}

func TestCookieJarMergeIdempotent(t *testing.T) {
	lines := []string{"CSPSESSIONID=abc", "CSPWSERVERID=w1", "CSPSESSIONID=xyz"}

	once := &CookieJar{}
	once.Merge(lines)

	twice := &CookieJar{}
	twice.Merge(lines)
	twice.Merge(lines)

	assert.Equal(t, once.Cookies(), twice.Cookies())
	assert.Len(t, twice.Cookies(), 2)
}

func TestCookieJarClear(t *testing.T) {
	jar := &CookieJar{}
	jar.Merge([]string{"a=1"})
	jar.Clear()
	assert.Empty(t, jar.Cookies())
	assert.Equal(t, "", jar.Header())
}
