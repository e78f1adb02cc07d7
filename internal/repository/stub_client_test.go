package repository

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
)

type recordedCall struct {
	Method string
	Path   string
	Token  string
	Query  url.Values
	Body   interface{}
}

// stubClient answers every call with a canned JSON body keyed by "METHOD path".
type stubClient struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []recordedCall
}

func newStubClient() *stubClient {
	return &stubClient{responses: map[string]string{}, errs: map[string]error{}}
}

func (s *stubClient) on(method, path, body string) *stubClient {
	s.responses[method+" "+path] = body
	return s
}

func (s *stubClient) fail(method, path string, err error) *stubClient {
	s.errs[method+" "+path] = err
	return s
}

func (s *stubClient) Do(_ context.Context, method, path, token string, query url.Values, in, out interface{}) error {
	s.mu.Lock()
	s.calls = append(s.calls, recordedCall{Method: method, Path: path, Token: token, Query: query, Body: in})
	s.mu.Unlock()

	key := method + " " + path
	if err, ok := s.errs[key]; ok {
		return err
	}
	body, ok := s.responses[key]
	if !ok || out == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

func (s *stubClient) last() recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}
