package transport

import (
	"net/http"
	"strings"
	"sync"
)

// Cookie is one name=value pair held by a CookieJar.
type Cookie struct {
	Name  string
	Value string
}

// CookieJar holds the cookies of one Session, in the order they were first received.
// A cookie returned again by the server replaces the first entry with the same name.
type CookieJar struct {
	mu      sync.Mutex
	cookies []Cookie
}

// Merge applies the Set-Cookie header lines of a response. Applying the same lines twice leaves the jar unchanged.
func (j *CookieJar) Merge(setCookies []string) {
	if len(setCookies) == 0 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, line := range setCookies {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		j.set(c.Name, c.Value)
	}
}

func (j *CookieJar) set(name, value string) {
	for i := range j.cookies {
		if j.cookies[i].Name == name {
			j.cookies[i].Value = value
			return
		}
	}
	j.cookies = append(j.cookies, Cookie{Name: name, Value: value})
}

// Header returns the value of the Cookie request header, or "" when the jar is empty.
func (j *CookieJar) Header() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	pairs := make([]string, 0, len(j.cookies))
	for _, c := range j.cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// Cookies returns a copy of the jar contents.
func (j *CookieJar) Cookies() []Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	result := make([]Cookie, len(j.cookies))
	copy(result, j.cookies)
	return result
}

// Clear removes every cookie.
func (j *CookieJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = nil
}
