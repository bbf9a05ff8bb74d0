package pinboard

import (
	"net/http"
	"strings"
)

// Operation names one remote action. Its value is the path below the API root.
type Operation string

const (
	OpLastUpdate  Operation = "posts/update"
	OpAddPost     Operation = "posts/add"
	OpDeletePost  Operation = "posts/delete"
	OpGetPosts    Operation = "posts/get"
	OpRecentPosts Operation = "posts/recent"
	OpDates       Operation = "posts/dates"
	OpAllPosts    Operation = "posts/all"
	OpSuggest     Operation = "posts/suggest"
	OpListTags    Operation = "tags/get"
	OpDeleteTag   Operation = "tags/delete"
	OpRenameTag   Operation = "tags/rename"
	OpSecret      Operation = "user/secret"
	OpAccessToken Operation = "user/api_token/"
	OpListNotes   Operation = "notes/list"
)

// opNote is a path prefix; the note id is appended per call.
const opNote Operation = "notes/"

type authScheme int

const (
	authToken authScheme = iota
	authBasic
)

type endpoint struct {
	method string
	auth   authScheme
	// resultKey is the body field that must read "done" for the call to have
	// succeeded. Empty means the body carries data, not a status.
	resultKey string
}

// All Pinboard v1 methods are GETs, including the mutating ones.
var endpoints = map[Operation]endpoint{
	OpLastUpdate:  {method: http.MethodGet},
	OpAddPost:     {method: http.MethodGet, resultKey: "result_code"},
	OpDeletePost:  {method: http.MethodGet, resultKey: "result_code"},
	OpGetPosts:    {method: http.MethodGet},
	OpRecentPosts: {method: http.MethodGet},
	OpDates:       {method: http.MethodGet},
	OpAllPosts:    {method: http.MethodGet},
	OpSuggest:     {method: http.MethodGet},
	OpListTags:    {method: http.MethodGet},
	OpDeleteTag:   {method: http.MethodGet, resultKey: "result"},
	OpRenameTag:   {method: http.MethodGet, resultKey: "result"},
	OpSecret:      {method: http.MethodGet},
	OpAccessToken: {method: http.MethodGet, auth: authBasic},
	OpListNotes:   {method: http.MethodGet},
}

func (op Operation) endpoint() (endpoint, bool) {
	if ep, ok := endpoints[op]; ok {
		return ep, true
	}
	if strings.HasPrefix(string(op), string(opNote)) && len(op) > len(opNote) {
		return endpoint{method: http.MethodGet}, true
	}
	return endpoint{}, false
}
